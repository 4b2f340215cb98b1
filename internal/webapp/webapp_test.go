// SPDX-License-Identifier: MPL-2.0

package webapp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/devsoap/devlaunch/internal/launch"
	"github.com/devsoap/devlaunch/internal/testutil"
	"github.com/devsoap/devlaunch/pkg/types"
)

const testWebXML = `<?xml version="1.0" encoding="UTF-8"?>
<web-app xmlns="https://jakarta.ee/xml/ns/jakartaee" version="5.0">
  <display-name>Demo</display-name>
  <welcome-file-list>
    <welcome-file>start.html</welcome-file>
  </welcome-file-list>
  <mime-mapping>
    <extension>.WOFF2</extension>
    <mime-type>font/woff2</mime-type>
  </mime-mapping>
  <error-page>
    <error-code>404</error-code>
    <location>/missing.html</location>
  </error-page>
  <error-page>
    <exception-type>java.lang.Throwable</exception-type>
    <location>/oops.html</location>
  </error-page>
  <env-entry>
    <env-entry-name>greeting</env-entry-name>
    <env-entry-type>java.lang.String</env-entry-type>
    <env-entry-value>hello</env-entry-value>
  </env-entry>
  <env-entry>
    <env-entry-name>mode</env-entry-name>
    <env-entry-type>java.lang.String</env-entry-type>
    <env-entry-value>dev</env-entry-value>
  </env-entry>
</web-app>
`

const testFragmentXML = `<web-fragment>
  <name>addon</name>
  <welcome-file-list><welcome-file>ignored.html</welcome-file></welcome-file-list>
  <mime-mapping><extension>woff2</extension><mime-type>application/x-ignored</mime-type></mime-mapping>
  <mime-mapping><extension>mjs</extension><mime-type>text/javascript</mime-type></mime-mapping>
  <error-page><error-code>500</error-code><location>/error.html</location></error-page>
  <env-entry><env-entry-name>greeting</env-entry-name><env-entry-value>ignored</env-entry-value></env-entry>
  <env-entry><env-entry-name>fromFragment</env-entry-name><env-entry-value>yes</env-entry-value></env-entry>
</web-fragment>
`

const testJettyEnvXML = `<?xml version="1.0"?>
<!DOCTYPE Configure PUBLIC "-//Jetty//Configure//EN" "https://www.eclipse.org/jetty/configure_10_0.dtd">
<Configure class="org.eclipse.jetty.webapp.WebAppContext">
  <New id="greeting" class="org.eclipse.jetty.plus.jndi.EnvEntry">
    <Arg></Arg>
    <Arg>greeting</Arg>
    <Arg type="java.lang.String">overridden</Arg>
    <Arg type="boolean">true</Arg>
  </New>
  <New id="mode" class="org.eclipse.jetty.plus.jndi.EnvEntry">
    <Arg>mode</Arg>
    <Arg type="java.lang.String">prod</Arg>
    <Arg type="boolean">false</Arg>
  </New>
  <New id="ds" class="org.example.DataSource"/>
</Configure>
`

const testJettyWebXML = `<?xml version="1.0"?>
<Configure class="org.eclipse.jetty.webapp.WebAppContext">
  <Set name="displayName">Overlay</Set>
  <Set name="dirAllowed">false</Set>
  <Set name="contextPath">/ignored</Set>
  <Call name="setAttribute">
    <Arg>org.example.flag</Arg>
    <Arg>on</Arg>
  </Call>
</Configure>
`

func writeFile(t *testing.T, root string, rel, content string) {
	t.Helper()
	testutil.WriteTree(t, root, map[string]string{rel: content})
}

func TestNewContext(t *testing.T) {
	t.Parallel()

	roots := launch.ResourceRootSet{
		WebRoot:   "webapp",
		Classpath: []types.FilesystemPath{"a", "b", "c", "r"},
	}
	c := NewContext(roots, Options{})

	if c.ContextPath != "/" {
		t.Errorf("ContextPath = %q, want /", c.ContextPath)
	}
	if c.BaseResource != "webapp" {
		t.Errorf("BaseResource = %q, want webapp", c.BaseResource)
	}
	if !c.ParentLoaderPriority {
		t.Error("ParentLoaderPriority should be enabled")
	}
	if c.ExtraClasspath != "a;b;c;r" {
		t.Errorf("ExtraClasspath = %q, want a;b;c;r", c.ExtraClasspath)
	}
	if got := c.Attributes[ContainerIncludeJarPatternAttr]; got != ".*/build/classes/.*" {
		t.Errorf("include pattern = %q", got)
	}
	want := []StageName{
		StageWebXML, StageWebInf, StagePlus, StageMetaInf,
		StageFragment, StageEnv, StageAnnotations, StageJettyWeb,
	}
	if diff := cmp.Diff(want, c.StageNames()); diff != "" {
		t.Errorf("stage order mismatch (-want +got):\n%s", diff)
	}
}

func TestNewContext_NoWebRoot(t *testing.T) {
	t.Parallel()

	c := NewContext(launch.ResourceRootSet{Classpath: []types.FilesystemPath{"", "r"}}, Options{})
	if c.BaseResource != "" || len(c.ResourceRoots) != 0 {
		t.Errorf("expected no base resource, got %q / %v", c.BaseResource, c.ResourceRoots)
	}
	if c.ExtraClasspath != ";r" {
		t.Errorf("ExtraClasspath = %q, want ;r", c.ExtraClasspath)
	}
	if err := c.Configure(context.Background()); err != nil {
		t.Fatalf("Configure() without web root should succeed: %v", err)
	}
	if diff := cmp.Diff([]string{"index.html", "index.htm"}, c.WelcomeFiles); diff != "" {
		t.Errorf("default welcome files mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigure_FullLayout(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	web := filepath.Join(root, "webapp")
	classes := filepath.Join(root, "build", "classes", "java", "main")
	other := filepath.Join(root, "other")
	resources := filepath.Join(root, "build", "resources", "main")

	writeFile(t, web, "index.html", "<h1>demo</h1>")
	writeFile(t, web, "WEB-INF/web.xml", testWebXML)
	writeFile(t, web, "WEB-INF/jetty-env.xml", testJettyEnvXML)
	writeFile(t, web, "WEB-INF/jetty-web.xml", testJettyWebXML)
	writeFile(t, web, "WEB-INF/classes/com/example/Servlet.class", "")
	writeFile(t, web, "WEB-INF/lib/dep.jar", "")
	writeFile(t, web, "WEB-INF/lib/notes.txt", "")
	writeFile(t, classes, "com/acme/App.class", "")
	writeFile(t, classes, "com/acme/App$Inner.class", "")
	writeFile(t, classes, "com/acme/readme.txt", "")
	writeFile(t, other, "org/skip/Skipped.class", "")
	writeFile(t, resources, "META-INF/resources/addon.js", "")
	writeFile(t, resources, "META-INF/web-fragment.xml", testFragmentXML)

	roots := launch.ResourceRootSet{
		WebRoot: types.FilesystemPath(web),
		Classpath: []types.FilesystemPath{
			types.FilesystemPath(classes),
			types.FilesystemPath(other),
			types.FilesystemPath(filepath.Join(root, "missing")),
			types.FilesystemPath(resources),
		},
	}
	c, err := Build(context.Background(), roots, Options{DirAllowed: true})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if c.DisplayName != "Overlay" {
		t.Errorf("DisplayName = %q, want Overlay (jetty-web.xml wins)", c.DisplayName)
	}
	if c.DirAllowed {
		t.Error("jetty-web.xml should disable directory listings")
	}
	if c.Attributes["org.example.flag"] != "on" {
		t.Errorf("attribute from setAttribute missing: %v", c.Attributes)
	}
	if diff := cmp.Diff([]string{"start.html"}, c.WelcomeFiles); diff != "" {
		t.Errorf("WelcomeFiles mismatch (-want +got):\n%s", diff)
	}

	wantMIME := map[string]string{"woff2": "font/woff2", "mjs": "text/javascript"}
	if diff := cmp.Diff(wantMIME, c.MIMETypes); diff != "" {
		t.Errorf("MIMETypes mismatch (-want +got):\n%s", diff)
	}
	wantPages := map[int]string{404: "/missing.html", 500: "/error.html"}
	if diff := cmp.Diff(wantPages, c.ErrorPages); diff != "" {
		t.Errorf("ErrorPages mismatch (-want +got):\n%s", diff)
	}

	wantEnv := map[string]string{"greeting": "overridden", "mode": "dev", "fromFragment": "yes"}
	gotEnv := make(map[string]string, len(c.EnvEntries))
	for name, e := range c.EnvEntries {
		gotEnv[name] = e.Value
	}
	if diff := cmp.Diff(wantEnv, gotEnv); diff != "" {
		t.Errorf("EnvEntries mismatch (-want +got):\n%s", diff)
	}

	wantRoots := []types.FilesystemPath{
		types.FilesystemPath(web),
		types.FilesystemPath(filepath.Join(resources, "META-INF", "resources")),
	}
	if diff := cmp.Diff(wantRoots, c.ResourceRoots); diff != "" {
		t.Errorf("ResourceRoots mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"addon"}, c.Fragments); diff != "" {
		t.Errorf("Fragments mismatch (-want +got):\n%s", diff)
	}

	wantClasspathTail := []types.FilesystemPath{
		types.FilesystemPath(filepath.Join(web, "WEB-INF", "classes")),
		types.FilesystemPath(filepath.Join(web, "WEB-INF", "lib", "dep.jar")),
	}
	if diff := cmp.Diff(wantClasspathTail, c.Classpath[len(roots.Classpath):]); diff != "" {
		t.Errorf("WEB-INF classpath mismatch (-want +got):\n%s", diff)
	}

	got := slices.Clone(c.ScannedClasses)
	slices.Sort(got)
	wantClasses := []string{"com.acme.App", "com.acme.App$Inner", "com.example.Servlet"}
	if diff := cmp.Diff(wantClasses, got); diff != "" {
		t.Errorf("ScannedClasses mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigure_StageFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		files     map[string]string
		opts      Options
		wantStage StageName
	}{
		{
			name:      "malformed web.xml",
			files:     map[string]string{"webapp/WEB-INF/web.xml": "<web-app><display-name>"},
			wantStage: StageWebXML,
		},
		{
			name:      "wrong descriptor root",
			files:     map[string]string{"webapp/WEB-INF/web.xml": "<beans/>"},
			wantStage: StageWebXML,
		},
		{
			name: "bad error code",
			files: map[string]string{"webapp/WEB-INF/web.xml": `<web-app><error-page>
				<error-code>abc</error-code><location>/x.html</location></error-page></web-app>`},
			wantStage: StageWebXML,
		},
		{
			name:      "duplicate env entry",
			files:     map[string]string{"webapp/WEB-INF/web.xml": `<web-app><env-entry><env-entry-name>a</env-entry-name></env-entry><env-entry><env-entry-name>a</env-entry-name></env-entry></web-app>`},
			wantStage: StagePlus,
		},
		{
			name:      "malformed fragment",
			files:     map[string]string{"classes/META-INF/web-fragment.xml": "<web-fragment"},
			wantStage: StageFragment,
		},
		{
			name:      "malformed jetty-env.xml",
			files:     map[string]string{"webapp/WEB-INF/jetty-env.xml": "<Configure><New class=\"org.eclipse.jetty.plus.jndi.EnvEntry\"><Arg>x</Arg></New></Configure>"},
			wantStage: StageEnv,
		},
		{
			name:      "invalid include pattern",
			opts:      Options{ContainerIncludePattern: "(unclosed"},
			wantStage: StageAnnotations,
		},
		{
			name:      "malformed jetty-web.xml",
			files:     map[string]string{"webapp/WEB-INF/jetty-web.xml": "<Configure><Set"},
			wantStage: StageJettyWeb,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			if err := os.MkdirAll(filepath.Join(root, "webapp"), 0o755); err != nil {
				t.Fatal(err)
			}
			for rel, content := range tt.files {
				writeFile(t, root, rel, content)
			}
			roots := launch.ResourceRootSet{
				WebRoot:   types.FilesystemPath(filepath.Join(root, "webapp")),
				Classpath: []types.FilesystemPath{types.FilesystemPath(filepath.Join(root, "classes"))},
			}

			_, err := Build(context.Background(), roots, tt.opts)
			var stageErr *StageError
			if !errors.As(err, &stageErr) {
				t.Fatalf("Build() error = %v, want *StageError", err)
			}
			if stageErr.Stage != tt.wantStage {
				t.Errorf("failing stage = %s, want %s (err: %v)", stageErr.Stage, tt.wantStage, err)
			}
		})
	}
}

type recordingStage struct {
	name StageName
	ran  *[]StageName
	err  error
}

func (s recordingStage) Name() StageName { return s.name }

func (s recordingStage) Configure(*Context) error {
	*s.ran = append(*s.ran, s.name)
	return s.err
}

func TestConfigure_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	var ran []StageName
	boom := errors.New("boom")
	c := NewContext(launch.ResourceRootSet{}, Options{Stages: []Stage{
		recordingStage{name: StageWebXML, ran: &ran},
		recordingStage{name: StageWebInf, ran: &ran, err: boom},
		recordingStage{name: StageJettyWeb, ran: &ran},
	}})

	err := c.Configure(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Configure() error = %v, want boom", err)
	}
	if diff := cmp.Diff([]StageName{StageWebXML, StageWebInf}, ran); diff != "" {
		t.Errorf("executed stages mismatch (-want +got):\n%s", diff)
	}
	if err := c.Configure(context.Background()); !errors.Is(err, ErrAlreadyConfigured) {
		t.Errorf("second Configure() = %v, want ErrAlreadyConfigured", err)
	}
}

func TestConfigure_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran []StageName
	c := NewContext(launch.ResourceRootSet{}, Options{Stages: []Stage{recordingStage{name: StageWebXML, ran: &ran}}})
	if err := c.Configure(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Configure() = %v, want context.Canceled", err)
	}
	if len(ran) != 0 {
		t.Errorf("no stage should run, ran %v", ran)
	}
}

func TestValidateOrder(t *testing.T) {
	t.Parallel()

	stage := func(n StageName) Stage { return recordingStage{name: n, ran: new([]StageName)} }

	tests := []struct {
		name    string
		stages  []Stage
		wantErr bool
	}{
		{"defaults", DefaultStages(), false},
		{"subset in order", []Stage{stage(StageWebXML), stage(StageAnnotations)}, false},
		{"empty", nil, false},
		{"reversed", []Stage{stage(StageAnnotations), stage(StageWebXML)}, true},
		{"duplicate", []Stage{stage(StageWebXML), stage(StageWebXML)}, true},
		{"unknown", []Stage{stage("custom")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateOrder(tt.stages)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateOrder() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrStageOrder) {
				t.Errorf("error should wrap ErrStageOrder, got %v", err)
			}
		})
	}
}

func TestJoinExtraClasspath(t *testing.T) {
	t.Parallel()

	got := JoinExtraClasspath([]types.FilesystemPath{"a", "b", "c", "r"})
	if got != "a;b;c;r" {
		t.Errorf("JoinExtraClasspath() = %q, want a;b;c;r", got)
	}
}
