package mechconfig

import (
	"fmt"

	"mechlink-go/pkg/mechlerr"
)

func errMissingSection(name string) error {
	return mechlerr.New(mechlerr.MalformedJoint, fmt.Sprintf("section %q not found", name)).
		WithContext("section", name)
}

func errMissingOption(section, option string) error {
	return mechlerr.New(mechlerr.MalformedJoint, fmt.Sprintf("option %q must be specified", option)).
		WithContext("section", section).
		WithContext("option", option)
}

func errInvalidValue(section, option, value, expected string) error {
	return mechlerr.New(mechlerr.MalformedJoint, fmt.Sprintf("invalid value %q, expected %s", value, expected)).
		WithContext("section", section).
		WithContext("option", option)
}
