package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/pkg/errors"

	vfs "github.com/apicurio/workflow-results/internal/assets"
)

const (
	TemplateBasePath    = "templates"
	TemplateSummaryPage = TemplateBasePath + "/summary/index.html"
	TemplateIndexPage   = TemplateBasePath + "/index/index.html"
)

var templateFuncs = template.FuncMap{
	"badgeClass": func(v interface{}) string {
		return strings.ToLower(fmt.Sprint(v))
	},
	"seconds": func(s float64) string {
		return fmt.Sprintf("%.1fs", s)
	},
	"humanBytes": humanBytes,
}

// renderTemplate executes an embedded page template. The Go template
// delimiter is '[[]]' as in every page template of the project.
func renderTemplate(name string, data interface{}) ([]byte, error) {
	src, err := vfs.ReadFile(name)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read file %q from VFS", name)
	}
	tmpl, err := template.New(name).Delims("[[", "]]").Funcs(templateFuncs).Parse(string(src))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create template for %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, errors.Wrapf(err, "unable to process template for %q", name)
	}
	return buf.Bytes(), nil
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
