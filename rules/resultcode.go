package rules

import (
	"regexp"
	"strings"
)

var modifierRE = regexp.MustCompile(`RES-CERT|CERT|RES-CACIT|CACIT`)

// ResultCode is a result code split into its base code and modifiers
type ResultCode struct {
	Result   string
	Class    Class
	Cert     bool
	Cacit    bool
	ResCert  bool
	ResCacit bool
}

// ParseResultCode parses a display code such as "A1 CERT" or "VOI1".
// Four character codes like "ALO1" also name the class the result was
// obtained in.
func ParseResultCode(code string) ResultCode {
	switch code {
	case "":
		return ResultCode{}
	case "FI KVA-B", "FI KVA-WT":
		return ResultCode{Result: code, Class: ClassVOI}
	case "FI KVA-FT":
		return ResultCode{Result: code}
	}

	rc := ResultCode{
		ResCert:  strings.Contains(code, "RES-CERT"),
		ResCacit: strings.Contains(code, "RES-CACIT"),
	}
	rc.Cert = !rc.ResCert && strings.Contains(code, "CERT")
	rc.Cacit = !rc.ResCacit && strings.Contains(code, "CACIT")

	base := code
	if loc := modifierRE.FindStringIndex(code); loc != nil {
		base = code[:loc[0]] + code[loc[1]:]
	}
	rc.Result = strings.TrimSpace(base)
	if len(rc.Result) == 4 {
		rc.Class = Class(rc.Result[:3])
	}
	return rc
}

// FormatResultCode renders the display code of r
func FormatResultCode(r Result) string {
	switch {
	case r.Cacit:
		return r.Result + " CACIT"
	case r.Cert:
		return r.Result + " CERT"
	case r.ResCacit:
		return r.Result + " RES-CACIT"
	case r.ResCert:
		return r.Result + " RES-CERT"
	}
	return r.Result
}

// Apply copies the parsed code onto r
func (rc ResultCode) Apply(r *Result) {
	r.Result = rc.Result
	if rc.Class != ClassNone {
		r.Class = rc.Class
	}
	r.Cert, r.Cacit = rc.Cert, rc.Cacit
	r.ResCert, r.ResCacit = rc.ResCert, rc.ResCacit
}
