// SPDX-License-Identifier: MPL-2.0

// Package sass compiles theme stylesheets with Dart Sass.
//
// The input stylesheet named on the command line is not read directly. Its
// theme directory name and file name are resolved inside the unpacked themes
// root, so "src/themes/mytheme/styles.scss" compiles
// "<unpacked>/mytheme/styles.scss". The CSS and its source map
// ("<output>.map") are created before compiling and removed again when
// compilation fails.
package sass
