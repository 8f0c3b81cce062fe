package ingest

import (
	"regexp"

	"github.com/tansive/tansive-inventory/internal/inventorysrv/config"
)

// InternalMatcher flags components built inside the organization. A
// component is internal when its group or its name fully matches the
// configured expression.
type InternalMatcher struct {
	groups *regexp.Regexp
	names  *regexp.Regexp
}

func NewInternalMatcher(cfg config.InternalComponentsConfig) (*InternalMatcher, error) {
	m := &InternalMatcher{}
	var err error
	if m.groups, err = compileFull(cfg.GroupsRegex); err != nil {
		return nil, ErrIngest.MsgErr("invalid internal groups expression", err)
	}
	if m.names, err = compileFull(cfg.NamesRegex); err != nil {
		return nil, ErrIngest.MsgErr("invalid internal names expression", err)
	}
	return m, nil
}

func compileFull(expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, nil
	}
	return regexp.Compile(`^(?:` + expr + `)$`)
}

func (m *InternalMatcher) IsInternal(group, name string) bool {
	if m == nil {
		return false
	}
	if m.groups != nil && group != "" && m.groups.MatchString(group) {
		return true
	}
	return m.names != nil && name != "" && m.names.MatchString(name)
}
