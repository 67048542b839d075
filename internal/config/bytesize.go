package config

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// ByteSize is a byte count written in human notation, e.g. "8KiB" or "2 MB".
// Plain integers are taken as bytes.
type ByteSize int64

func (b *ByteSize) String() string {
	if b == nil {
		return "0"
	}

	return humanize.IBytes(uint64(*b))
}

// Set implements flag.Value.
func (b *ByteSize) Set(s string) error {
	v, err := ParseByteSize(s)
	if err != nil {
		return err
	}

	*b = v
	return nil
}

// UnmarshalYAML accepts both integers and human sizes.
func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}

	return b.Set(s)
}

// ParseByteSize parses s with go-humanize.
func ParseByteSize(s string) (ByteSize, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("size %q is too large", s)
	}

	return ByteSize(n), nil
}
