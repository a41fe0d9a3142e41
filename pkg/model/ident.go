package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Ident names one (package, pass) pair requested for installation.
type Ident struct {
	Name string
	Pass int
}

// ParseIdent parses "name" (single pass) or "name:pass".
func ParseIdent(s string) (Ident, error) {
	name, pass, found := strings.Cut(s, ":")
	if name == "" {
		return Ident{}, fmt.Errorf("empty package name in %q", s)
	}
	if !found {
		return Ident{Name: name, Pass: SinglePass}, nil
	}
	n, err := strconv.Atoi(pass)
	if err != nil || n < SinglePass {
		return Ident{}, fmt.Errorf("invalid pass %q in %q", pass, s)
	}
	return Ident{Name: name, Pass: n}, nil
}

// ParseIdents parses every argument with ParseIdent, keeping the order.
func ParseIdents(args []string) ([]Ident, error) {
	idents := make([]Ident, 0, len(args))
	for _, arg := range args {
		id, err := ParseIdent(arg)
		if err != nil {
			return nil, err
		}
		idents = append(idents, id)
	}
	return idents, nil
}

func (i Ident) String() string {
	if i.Pass == SinglePass {
		return i.Name
	}
	return i.Name + ":" + strconv.Itoa(i.Pass)
}
