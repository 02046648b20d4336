package main

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/c2h5oh/datasize"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/logzship/internal/domain"
)

// secretValue is a pflag.Value that never prints the token it holds.
type secretValue struct {
	dst *domain.Secret
}

var _ pflag.Value = (*secretValue)(nil)

func (v *secretValue) String() string {
	if v.dst == nil {
		return ""
	}
	return v.dst.String()
}

func (v *secretValue) Set(s string) error {
	*v.dst = domain.NewSecret(s)
	return nil
}

func (v *secretValue) Type() string { return "token" }

// sizeValue is a pflag.Value parsing sizes such as "8MB".
type sizeValue struct {
	dst *datasize.ByteSize
}

var _ pflag.Value = (*sizeValue)(nil)

func (v *sizeValue) String() string {
	if v.dst == nil {
		return ""
	}
	return v.dst.String()
}

func (v *sizeValue) Set(s string) error {
	return v.dst.UnmarshalText([]byte(s))
}

func (v *sizeValue) Type() string { return "size" }

// openInput opens name for reading; "" and "-" mean stdin.
func openInput(name string) (io.ReadCloser, error) {
	if name == "" || name == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(name)
}

// readLines splits r into lines without their terminators.
func readLines(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16<<20)

	lines := []string{}
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
