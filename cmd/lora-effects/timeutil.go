package main

import (
	"fmt"
	"strings"

	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/registration"
	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/virkning"
)

func parseTimeFlag(name, v string) (virkning.TimePoint, error) {
	p, err := virkning.Parse(v)
	if err != nil {
		return virkning.TimePoint{}, withCode(exitUsage, fmt.Errorf("invalid --%s: %w", name, err))
	}
	return p, nil
}

// parseFieldPath reads "<group>/<field>", e.g. "tilstande/organisationenhedgyldighed".
func parseFieldPath(v string) (registration.FieldPath, error) {
	group, name, ok := strings.Cut(strings.TrimSpace(v), "/")
	if !ok || name == "" {
		return registration.FieldPath{}, fmt.Errorf("invalid field %q (expected <group>/<field>)", v)
	}
	for _, g := range registration.Groups {
		if string(g) == group {
			return registration.Path(g, name), nil
		}
	}
	return registration.FieldPath{}, fmt.Errorf("invalid field %q: unknown group %q", v, group)
}
