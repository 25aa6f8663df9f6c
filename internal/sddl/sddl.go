// Package sddl checks the syntax of security descriptor strings as used in
// channel access attributes. It does not resolve accounts.
package sddl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var sidAliases = set(
	"AA", "AC", "AN", "AO", "AP", "AS", "AU", "BA", "BG", "BO", "BU", "CA", "CD",
	"CG", "CN", "CO", "CY", "DA", "DC", "DD", "DG", "DU", "EA", "ED", "EK", "ER",
	"ES", "HA", "HI", "IS", "IU", "KA", "LA", "LG", "LS", "LU", "LW", "ME", "MP",
	"MU", "NO", "NS", "NU", "OW", "PA", "PO", "PS", "PU", "RA", "RC", "RD", "RE",
	"RM", "RO", "RS", "RU", "SA", "SI", "SO", "SS", "SU", "SY", "UD", "WD", "WR",
)

var aceTypes = set("A", "D", "OA", "OD", "AU", "AL", "OU", "OL", "ML", "XA", "XD", "ZA", "XU", "SP", "RA", "SD", "SA")

var aceFlags = set("CI", "OI", "NP", "IO", "ID", "SA", "FA", "TP", "CR")

var rightCodes = set(
	"GA", "GR", "GW", "GX", "RC", "SD", "WD", "WO", "RP", "WP", "CC", "DC", "LC",
	"SW", "LO", "DT", "CR", "FA", "FR", "FW", "FX", "KA", "KR", "KW", "KX", "NR",
	"NW", "NX",
)

func set(items ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, item := range items {
		out[item] = struct{}{}
	}
	return out
}

// Validator implements ports.SDDLValidator.
type Validator struct{}

func (Validator) IsValid(s string) bool {
	return Check(s) == nil
}

// Check parses s and returns the first syntax error.
func Check(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("empty security descriptor")
	}
	seen := map[byte]bool{}
	rest := s
	for rest != "" {
		if len(rest) < 2 || rest[1] != ':' {
			return fmt.Errorf("expected component at %q", rest)
		}
		kind := rest[0]
		if seen[kind] {
			return fmt.Errorf("component %c: repeated", kind)
		}
		seen[kind] = true
		body, next := splitComponent(rest[2:])
		var err error
		switch kind {
		case 'O', 'G':
			err = checkSID(body)
		case 'D', 'S':
			err = checkACL(body)
		default:
			err = fmt.Errorf("unknown component %c", kind)
		}
		if err != nil {
			return fmt.Errorf("component %c: %w", kind, err)
		}
		rest = next
	}
	return nil
}

// splitComponent cuts s before the next top-level "X:" marker.
func splitComponent(s string) (string, string) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		default:
			if depth == 0 && i+1 < len(s) && s[i+1] == ':' && strings.IndexByte("OGDS", s[i]) >= 0 {
				return s[:i], s[i:]
			}
		}
	}
	return s, ""
}

func checkSID(s string) error {
	if _, ok := sidAliases[s]; ok {
		return nil
	}
	if !strings.HasPrefix(s, "S-1-") {
		return fmt.Errorf("invalid sid %q", s)
	}
	parts := strings.Split(s[len("S-1-"):], "-")
	for _, p := range parts {
		if _, err := strconv.ParseUint(p, 10, 64); err != nil {
			return fmt.Errorf("invalid sid %q", s)
		}
	}
	return nil
}

func checkACL(s string) error {
	i := strings.IndexByte(s, '(')
	flags := s
	if i >= 0 {
		flags = s[:i]
	}
	if err := checkACLFlags(flags); err != nil {
		return err
	}
	if i < 0 {
		return nil
	}
	aces := s[i:]
	for aces != "" {
		if aces[0] != '(' {
			return fmt.Errorf("expected '(' at %q", aces)
		}
		end := strings.IndexByte(aces, ')')
		if end < 0 {
			return fmt.Errorf("unterminated ace %q", aces)
		}
		if err := checkACE(aces[1:end]); err != nil {
			return err
		}
		aces = aces[end+1:]
	}
	return nil
}

func checkACLFlags(s string) error {
	for s != "" {
		switch {
		case strings.HasPrefix(s, "NO_ACCESS_CONTROL"):
			s = s[len("NO_ACCESS_CONTROL"):]
		case strings.HasPrefix(s, "AI"), strings.HasPrefix(s, "AR"):
			s = s[2:]
		case s[0] == 'P':
			s = s[1:]
		default:
			return fmt.Errorf("invalid acl flags %q", s)
		}
	}
	return nil
}

func checkACE(s string) error {
	fields := strings.Split(s, ";")
	if len(fields) < 6 || len(fields) > 7 {
		return fmt.Errorf("ace %q: expected 6 fields, got %d", s, len(fields))
	}
	if _, ok := aceTypes[fields[0]]; !ok {
		return fmt.Errorf("ace %q: unknown type %q", s, fields[0])
	}
	if err := checkCodes(fields[1], aceFlags); err != nil {
		return fmt.Errorf("ace %q: flags: %w", s, err)
	}
	if err := checkRights(fields[2]); err != nil {
		return fmt.Errorf("ace %q: %w", s, err)
	}
	for _, g := range fields[3:5] {
		if g == "" {
			continue
		}
		if _, err := uuid.Parse(g); err != nil {
			return fmt.Errorf("ace %q: invalid object guid %q", s, g)
		}
	}
	if err := checkSID(fields[5]); err != nil {
		return fmt.Errorf("ace %q: %w", s, err)
	}
	return nil
}

func checkRights(s string) error {
	if s == "" {
		return fmt.Errorf("missing rights")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if _, err := strconv.ParseUint(s[2:], 16, 32); err != nil {
			return fmt.Errorf("invalid rights %q", s)
		}
		return nil
	}
	return checkCodes(s, rightCodes)
}

func checkCodes(s string, allowed map[string]struct{}) error {
	if len(s)%2 != 0 {
		return fmt.Errorf("invalid code list %q", s)
	}
	for i := 0; i < len(s); i += 2 {
		if _, ok := allowed[s[i:i+2]]; !ok {
			return fmt.Errorf("unknown code %q", s[i:i+2])
		}
	}
	return nil
}
