// Package sqlupdate turns a struct value into an UPDATE statement and its
// bound parameters by walking the same SrcRead leaf list a caller would get
// from emitmapper.ReadLeaves, rather than hand-rolling its own reflection
// over the object.
package sqlupdate

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/pkg/errors"

	emitmapper "github.com/niubilitynetcore/EmitMapper"
)

// ChangeTracker reports which named members of obj have changed since it
// was loaded.
type ChangeTracker interface {
	Changes(obj any) []string
}

// DBSettings supplies the two things that vary across SQL dialects: how an
// identifier is quoted and how a bind parameter is named.
type DBSettings interface {
	QuoteIdentifier(name string) string
	BindParam(name string) string
}

// AnsiSettings is the default DBSettings: double-quoted identifiers and
// "@NAME"-style bind parameters.
type AnsiSettings struct{}

func (AnsiSettings) QuoteIdentifier(name string) string { return `"` + name + `"` }
func (AnsiSettings) BindParam(name string) string       { return "@" + name }

// Command is the emitted statement plus the values bound to its named
// parameters, keyed by the same upper-cased name used in the text.
type Command struct {
	Text   string
	Params map[string]any
}

// BuildUpdateCommand builds an UPDATE statement and its bound parameters
// for obj. It returns (nil, false, nil) — no error, no command — when the
// effective SET list is empty, e.g. because a change tracker reports
// nothing changed.
func BuildUpdateCommand(
	obj any,
	table string,
	idFields []string,
	includeFields []string,
	excludeFields []string,
	tracker ChangeTracker,
	settings DBSettings,
) (*Command, bool, error) {
	if settings == nil {
		settings = AnsiSettings{}
	}
	if obj == nil {
		return nil, false, errors.New("sqlupdate: obj is nil")
	}

	t := reflect.TypeOf(obj)
	cfg := emitmapper.NewConfiguration()
	root, err := emitmapper.BuildReadPlan(t, cfg)
	if err != nil {
		return nil, false, errors.Wrap(err, "sqlupdate: building read plan")
	}
	leaves := emitmapper.ReadLeaves(root)

	idSet := upperSet(idFields)
	effective := effectiveIncludeSet(leaves, includeFields, excludeFields, tracker, obj)
	for name := range idSet {
		effective[name] = true
	}

	srcVal := reflect.ValueOf(obj)
	params := make(map[string]any)
	var setClauses, whereClauses []string

	for _, leaf := range leaves {
		upper := strings.ToUpper(leaf.Source.Name)
		v, err := leaf.Source.Get(srcVal)
		if err != nil {
			return nil, false, errors.Wrapf(err, "sqlupdate: reading member %s", leaf.Source.Name)
		}

		switch {
		case idSet[upper]:
			params[upper] = deref(v)
			whereClauses = append(whereClauses, fmt.Sprintf("%s=%s", settings.QuoteIdentifier(upper), settings.BindParam(upper)))
		case effective[upper]:
			params[upper] = deref(v)
			setClauses = append(setClauses, fmt.Sprintf("%s=%s", settings.QuoteIdentifier(upper), settings.BindParam(upper)))
		}
	}

	if len(setClauses) == 0 {
		return nil, false, nil
	}

	text := fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, strings.Join(setClauses, ","), strings.Join(whereClauses, " AND "))
	return &Command{Text: text, Params: params}, true, nil
}

// effectiveIncludeSet computes changed-member-names ∩ (include_fields ∪ ALL)
// when a tracker is present, or just include_fields-or-ALL when it isn't.
// Id-fields are added by the caller afterward — they are always included
// regardless of tracker/include/exclude.
func effectiveIncludeSet(leaves []emitmapper.MappingOperation, includeFields, excludeFields []string, tracker ChangeTracker, obj any) map[string]bool {
	all := make(map[string]bool, len(leaves))
	for _, l := range leaves {
		all[strings.ToUpper(l.Source.Name)] = true
	}

	includeOrAll := all
	if len(includeFields) > 0 {
		includeOrAll = upperSet(includeFields)
	}

	var effective map[string]bool
	if tracker != nil {
		changed := upperSet(tracker.Changes(obj))
		effective = make(map[string]bool)
		for name := range changed {
			if includeOrAll[name] {
				effective[name] = true
			}
		}
	} else {
		effective = make(map[string]bool, len(includeOrAll))
		for name := range includeOrAll {
			effective[name] = true
		}
	}

	for name := range upperSet(excludeFields) {
		delete(effective, name)
	}
	return effective
}

func upperSet(names []string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[strings.ToUpper(n)] = true
	}
	return out
}

func deref(v reflect.Value) any {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}
