package userdata

import (
	"sort"
	"strings"
)

// Well-known cloud-init content types.
const (
	TypeBoothook           = "text/cloud-boothook"
	TypeCloudConfig        = "text/cloud-config"
	TypeCloudConfigArchive = "text/cloud-config-archive"
	TypeCloudConfigJSONP   = "text/cloud-config-jsonp"
	TypeJinja2             = "text/jinja2"
	TypePartHandler        = "text/part-handler"
	TypeUpstartJob         = "text/upstart-job"
	TypeIncludeOnceURL     = "text/x-include-once-url"
	TypeIncludeURL         = "text/x-include-url"
	TypeShellScript        = "text/x-shellscript"
	TypeShellPerBoot       = "text/x-shellscript-per-boot"
	TypeShellPerInstance   = "text/x-shellscript-per-instance"
	TypeShellPerOnce       = "text/x-shellscript-per-once"
	TypePlain              = "text/plain"
)

// shebang is the directive prefix for executable scripts. The rest of the
// line (the interpreter) is part of the script and is never stripped.
const shebang = "#!"

// PartType correlates a MIME content type with the '#' directive lines
// cloud-init uses to recognise it in a bare document.
type PartType struct {
	ContentType string
	// Directives lists recognised header lines, canonical form first. Empty
	// when the type can only be declared through MIME headers.
	Directives []string
}

// Shebang reports whether the type is identified by a "#!" interpreter line.
func (t PartType) Shebang() bool {
	return len(t.Directives) > 0 && t.Directives[0] == shebang
}

// Script reports whether content of this type must start with a shebang line.
func (t PartType) Script() bool {
	return strings.HasPrefix(t.ContentType, TypeShellScript)
}

var partTypes = [...]PartType{
	{ContentType: TypeBoothook, Directives: []string{"#cloud-boothook", "#boothook"}},
	{ContentType: TypeCloudConfig, Directives: []string{"#cloud-config"}},
	{ContentType: TypeCloudConfigArchive, Directives: []string{"#cloud-config-archive"}},
	{ContentType: TypeCloudConfigJSONP, Directives: []string{"#cloud-config-jsonp"}},
	{ContentType: TypeJinja2, Directives: []string{"## template: jinja"}},
	{ContentType: TypePartHandler, Directives: []string{"#part-handler"}},
	{ContentType: TypeUpstartJob, Directives: []string{"#upstart-job"}},
	{ContentType: TypeIncludeOnceURL, Directives: []string{"#include-once"}},
	{ContentType: TypeIncludeURL, Directives: []string{"#include"}},
	{ContentType: TypeShellScript, Directives: []string{shebang}},
	{ContentType: TypeShellPerBoot},
	{ContentType: TypeShellPerInstance},
	{ContentType: TypeShellPerOnce},
}

type directiveEntry struct {
	prefix string // lower case
	typ    PartType
}

var (
	byContentType map[string]PartType
	// byDirective is ordered longest prefix first so that, for example,
	// "#cloud-config-archive" wins over "#cloud-config".
	byDirective []directiveEntry
)

func init() {
	byContentType = make(map[string]PartType, len(partTypes))
	for _, pt := range partTypes {
		byContentType[pt.ContentType] = pt
		for _, d := range pt.Directives {
			byDirective = append(byDirective, directiveEntry{prefix: strings.ToLower(d), typ: pt})
		}
	}
	sort.SliceStable(byDirective, func(i, j int) bool {
		return len(byDirective[i].prefix) > len(byDirective[j].prefix)
	})
}

// PartTypes returns a copy of the built-in type table.
func PartTypes() []PartType {
	out := make([]PartType, len(partTypes))
	for i, pt := range partTypes {
		out[i] = PartType{ContentType: pt.ContentType, Directives: append([]string(nil), pt.Directives...)}
	}
	return out
}

// LookupContentType returns the table entry for a content type. Parameters
// such as "; charset=utf-8" are ignored.
func LookupContentType(contentType string) (PartType, bool) {
	pt, ok := byContentType[mediaType(contentType)]
	return pt, ok
}

// LookupDirective matches the first line of a document against the known
// directives, case-insensitively, longest directive first.
func LookupDirective(line string) (PartType, bool) {
	lc := strings.ToLower(strings.TrimRight(line, " \t\r"))
	for _, e := range byDirective {
		if strings.HasPrefix(lc, e.prefix) {
			return e.typ, true
		}
	}
	return PartType{}, false
}

func mediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}
