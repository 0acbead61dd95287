package member

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/catalog"
)

var (
	workforceGroupsTag  = "workforcegroups"
	workforceGroupsText = "invalid workforce groups"

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to member attributes"
)

func init() {
	_ = core.Validate.RegisterValidation(workforceGroupsTag, workforceGroupsValidation)
	core.RegisterCustomTranslation(workforceGroupsTag, workforceGroupsText)

	core.Validate.RegisterStructValidation(memberStructValidation, NewMember{})
	core.RegisterCustomTranslation(pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(pwdAttrSimTag, pwdAttrSimText)
}

// workforceGroupsValidation checks that all provided groups are known.
func workforceGroupsValidation(fl validator.FieldLevel) bool {
	groups, ok := fl.Field().Interface().([]catalog.WorkforceGroup)
	if !ok {
		return false
	}
	for _, g := range groups {
		if !g.Valid() {
			return false
		}
	}
	return true
}

// memberStructValidation applies the password policy on NewMember.
func memberStructValidation(sl validator.StructLevel) {
	if nm, ok := sl.Current().Interface().(NewMember); ok {
		validatePassword(nm.Password, nm.Name, nm.Email, sl)
	}
}

// validatePassword applies the password policy to the provided password:
// - minLen: 8
// - no whitespace
// - not all numeric
// - no member attrs similarity
func validatePassword(pwd, name, email string, sl validator.StructLevel) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	pwdLen := len(pwd)
	if pwdLen < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}

	var digitCount int
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}
	if digitCount == pwdLen {
		reportErr(pwdNotAllNumTag)
		return
	}

	getRatio := func(pass, attr string) float64 {
		if attr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(attr, "")).QuickRatio()
	}
	if getRatio(pwd, name) >= pwdMaxSim || getRatio(pwd, email) >= pwdMaxSim {
		reportErr(pwdAttrSimTag)
	}
}
