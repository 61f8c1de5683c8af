// Copyright 2015 CNI authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ident provides validated string identifiers used throughout
// cnirt: container IDs, network/plugin-list names, and interface names.
package ident

import "strings"

// Kind enumerates the ways a value can fail identifier validation.
type Kind int

const (
	IsEmptyOrBlank Kind = iota
	FirstIsNotAlphabetic
	ContainsForbiddenCharacter
	TooLong
	IsForbiddenValue
)

func (k Kind) String() string {
	switch k {
	case IsEmptyOrBlank:
		return "is empty or blank"
	case FirstIsNotAlphabetic:
		return "first character is not ASCII alphabetic"
	case ContainsForbiddenCharacter:
		return "contains a forbidden character"
	case TooLong:
		return "is too long"
	case IsForbiddenValue:
		return "is a forbidden value"
	default:
		return "unknown validation error"
	}
}

// ValidationError reports why a raw string could not be turned into one
// of this package's identifier types.
type ValidationError struct {
	Kind  Kind
	Value string
	Max   int // only meaningful when Kind == TooLong
}

func (e *ValidationError) Error() string {
	if e.Kind == TooLong {
		return "cnirt: identifier " + quote(e.Value) + " " + e.Kind.String() + " (max " + itoa(e.Max) + ")"
	}
	return "cnirt: identifier " + quote(e.Value) + " " + e.Kind.String()
}

func quote(s string) string { return "\"" + s + "\"" }

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func isASCIIAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isASCIIAlnum(b byte) bool {
	return isASCIIAlpha(b) || (b >= '0' && b <= '9')
}

// ContainerID is a validated container identifier: non-empty after
// trimming, starting with an ASCII letter, and containing only
// alphanumerics, '.', '_' and '-' thereafter.
type ContainerID struct{ value string }

// NewContainerID validates raw and returns a ContainerID, or a
// *ValidationError describing why raw is invalid.
func NewContainerID(raw string) (ContainerID, error) {
	if strings.TrimSpace(raw) == "" {
		return ContainerID{}, &ValidationError{Kind: IsEmptyOrBlank, Value: raw}
	}
	if !isASCIIAlpha(raw[0]) {
		return ContainerID{}, &ValidationError{Kind: FirstIsNotAlphabetic, Value: raw}
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if isASCIIAlnum(c) || c == '.' || c == '_' || c == '-' {
			continue
		}
		return ContainerID{}, &ValidationError{Kind: ContainsForbiddenCharacter, Value: raw}
	}
	return ContainerID{value: raw}, nil
}

// String returns the underlying validated string.
func (c ContainerID) String() string { return c.value }

// Name is a validated network or plugin-list name: non-empty after
// trimming, starting with an ASCII letter, and containing only ASCII
// alphanumerics thereafter.
type Name struct{ value string }

// NewName validates raw and returns a Name, or a *ValidationError.
func NewName(raw string) (Name, error) {
	if strings.TrimSpace(raw) == "" {
		return Name{}, &ValidationError{Kind: IsEmptyOrBlank, Value: raw}
	}
	if !isASCIIAlpha(raw[0]) {
		return Name{}, &ValidationError{Kind: FirstIsNotAlphabetic, Value: raw}
	}
	for i := 0; i < len(raw); i++ {
		if !isASCIIAlnum(raw[i]) {
			return Name{}, &ValidationError{Kind: ContainsForbiddenCharacter, Value: raw}
		}
	}
	return Name{value: raw}, nil
}

// String returns the underlying validated string.
func (n Name) String() string { return n.value }

// MaxInterfaceNameLength is the longest interface name CNI plugins will
// accept, mirroring the Linux IFNAMSIZ-derived limit.
const MaxInterfaceNameLength = 15

// InterfaceName is a validated network interface name.
type InterfaceName struct{ value string }

// NewInterfaceName validates raw and returns an InterfaceName, or a
// *ValidationError.
func NewInterfaceName(raw string) (InterfaceName, error) {
	if strings.TrimSpace(raw) == "" {
		return InterfaceName{}, &ValidationError{Kind: IsEmptyOrBlank, Value: raw}
	}
	if len(raw) > MaxInterfaceNameLength {
		return InterfaceName{}, &ValidationError{Kind: TooLong, Value: raw, Max: MaxInterfaceNameLength}
	}
	if raw == "." || raw == ".." {
		return InterfaceName{}, &ValidationError{Kind: IsForbiddenValue, Value: raw}
	}
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case ' ', ':', '/':
			return InterfaceName{}, &ValidationError{Kind: ContainsForbiddenCharacter, Value: raw}
		}
	}
	return InterfaceName{value: raw}, nil
}

// String returns the underlying validated string.
func (i InterfaceName) String() string { return i.value }
