package app

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Size is a WIDTHxHEIGHT pair. It satisfies the pflag.Value interface so
// it can be bound straight to a command flag.
type Size struct {
	Width  int
	Height int
}

func ParseSize(s string) (Size, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return Size{}, nil
	}
	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return Size{}, fmt.Errorf("invalid size %q: want WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return Size{}, fmt.Errorf("invalid size %q: %w", s, err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return Size{}, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if width < 0 || height < 0 {
		return Size{}, fmt.Errorf("invalid size %q: negative dimension", s)
	}
	return Size{Width: width, Height: height}, nil
}

func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

func (s *Size) String() string {
	if s == nil || s.IsZero() {
		return ""
	}
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

func (s *Size) Set(value string) error {
	parsed, err := ParseSize(value)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s *Size) Type() string {
	return "size"
}

// UnmarshalYAML accepts "1280x720" or a two element sequence [1280, 720].
func (s *Size) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var pair []int
		if err := node.Decode(&pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("line %d: size needs exactly two values", node.Line)
		}
		*s = Size{Width: pair[0], Height: pair[1]}
		return nil
	}

	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return s.Set(raw)
}
