// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	InvalidArgumentsId Id = iota + 1
	ConfigLoadFailedId
	PortInUseId
	HookUnavailableId
	WebAppConfigFailedId
	SassCompilerNotFoundId
	StylesheetInputNotFoundId
	StylesheetCompileFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // project docs about the issue type
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the guide as styled terminal output. stylePath is a glamour
// style name ("dark", "light", "notty", "auto") or a path to a JSON style.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	invalidArgumentsIssue = &Issue{
		id: InvalidArgumentsId,
		mdMsg: `
# The launcher was started with invalid arguments

The launcher expects its arguments in a fixed order:

~~~
$ launcher <port> <webAppDir> <classDirs> <resourcesDir> [logLevel]
~~~

## Things you can try
- Pass a port between 1 and 65535.
- Separate multiple class directories with a comma, without spaces.
- Quote paths that contain spaces.`,
		extLinks: []HttpLink{"https://jetty.org/docs/"},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load the devlaunch configuration

The configuration file is CUE and is validated against a closed schema, so
unknown keys and wrongly typed values are rejected.

## Things you can try
- Check the file for syntax errors:
~~~
$ cue vet devlaunch.cue
~~~
- Durations are strings such as "10s" or "500ms".
- Remove the file to fall back to the built-in defaults.`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	portInUseIssue = &Issue{
		id: PortInUseId,
		mdMsg: `
# The dev server could not bind its port

Another process is already listening on the requested port.

## Things you can try
- Stop the other dev server, or pick another port.
- On Linux, find the owner with:
~~~
$ ss -ltnp 'sport = :8080'
~~~`,
	}

	hookUnavailableIssue = &Issue{
		id: HookUnavailableId,
		mdMsg: `
# No lifecycle hook could be installed

The launcher reports its state to the build tool through lifecycle tokens.
The server core in this build exposes neither the legacy lifecycle-listener
API nor the event-listener API, so no tokens can be emitted.

## Things you can try
- Rebuild with the default tags, or with ` + "`-tags legacyhooks`" + ` for older cores.`,
	}

	webAppConfigFailedIssue = &Issue{
		id: WebAppConfigFailedId,
		mdMsg: `
# The web application could not be configured

One of the configuration stages failed while reading the web application
layout. The error names the stage and the offending file.

## Things you can try
- Validate WEB-INF/web.xml and any web-fragment.xml files.
- Check the EnvEntry declarations in WEB-INF/jetty-env.xml.`,
		extLinks: []HttpLink{"https://jetty.org/docs/jetty/12/operations-guide/"},
	}

	sassCompilerNotFoundIssue = &Issue{
		id: SassCompilerNotFoundId,
		mdMsg: `
# The Dart Sass compiler was not found

Stylesheets are compiled by the Dart Sass embedded protocol, which needs a
` + "`sass`" + ` binary on the PATH or configured explicitly.

## Things you can try
- Install Dart Sass:
~~~
$ npm install -g sass-embedded
~~~
- Or point ` + "`sass.binary`" + ` in your config at the executable.`,
		extLinks: []HttpLink{"https://sass-lang.com/install/"},
	}

	stylesheetInputNotFoundIssue = &Issue{
		id: StylesheetInputNotFoundId,
		mdMsg: `
# The theme stylesheet was not found

The input stylesheet is looked up inside the unpacked themes directory as
` + "`<themes>/<theme>/<file>`" + `.

## Things you can try
- Make sure the themes were unpacked before compiling.
- Check the spelling of the theme directory.`,
	}

	stylesheetCompileFailedIssue = &Issue{
		id: StylesheetCompileFailedId,
		mdMsg: `
# The stylesheet failed to compile

Dart Sass rejected the input. The output and source map files were removed
so stale CSS is never served.

## Things you can try
- Read the compiler message, it names the file, line and column.
- Run the compiler with ` + "`--watch`" + ` to recompile on every save.`,
		extLinks: []HttpLink{"https://sass-lang.com/documentation/"},
	}

	issues = map[Id]*Issue{
		invalidArgumentsIssue.Id():        invalidArgumentsIssue,
		configLoadFailedIssue.Id():        configLoadFailedIssue,
		portInUseIssue.Id():               portInUseIssue,
		hookUnavailableIssue.Id():         hookUnavailableIssue,
		webAppConfigFailedIssue.Id():      webAppConfigFailedIssue,
		sassCompilerNotFoundIssue.Id():    sassCompilerNotFoundIssue,
		stylesheetInputNotFoundIssue.Id(): stylesheetInputNotFoundIssue,
		stylesheetCompileFailedIssue.Id(): stylesheetCompileFailedIssue,
	}
)

// Values returns every registered issue ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
