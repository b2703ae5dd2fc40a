package platforms

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/sofmeright/bravedebloat/src/channel"
	"github.com/sofmeright/bravedebloat/src/emit"
	"github.com/sofmeright/bravedebloat/src/extensions"
	"github.com/sofmeright/bravedebloat/src/policy"
)

const (
	regHeader = "Windows Registry Editor Version 5.00"
	regHive   = "HKEY_LOCAL_MACHINE"
)

var (
	utf16File = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	utf16Data = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
)

// regDocument renders the policy key and the forcelist subkey as .reg text.
// The caller encodes it.
func regDocument(ctx channel.Context, m *policy.Model, exts []extensions.Entry) (string, error) {
	s := emit.NewBatchScript()
	s.Line(regHeader)
	s.Blank()
	s.Linef("[%s\\%s]", regHive, ctx.RegistryPath)
	for _, set := range m.Settings() {
		data, err := regValue(set)
		if err != nil {
			return "", err
		}
		s.Linef("%s=%s", regQuote(set.Name), data)
	}

	forcelist := fmt.Sprintf(`%s\%s\%s`, regHive, ctx.RegistryPath, policy.ForcelistKey)
	s.Blank()
	s.Linef("[-%s]", forcelist)
	if len(exts) > 0 {
		s.Blank()
		s.Linef("[%s]", forcelist)
		for i, v := range extensions.Forcelist(exts) {
			s.Linef("%s=%s", regQuote(strconv.Itoa(i+1)), regQuote(v))
		}
	}
	return s.String(), nil
}

// encodeReg converts .reg text to UTF-16LE with a byte order mark, the
// encoding regedit writes.
func encodeReg(doc string) ([]byte, error) {
	out, err := utf16File.NewEncoder().Bytes([]byte(doc))
	if err != nil {
		return nil, fmt.Errorf("encoding registry file: %w", err)
	}
	return out, nil
}

func regValue(s policy.Setting) (string, error) {
	fail := func(reason string) (string, error) {
		return "", &emit.RenderError{Platform: channel.Windows, Setting: s.Name, Reason: reason}
	}
	v := s.Value
	switch v.Kind() {
	case policy.KindBool:
		if v.Bool() {
			return "dword:00000001", nil
		}
		return "dword:00000000", nil
	case policy.KindInt:
		n := v.Int()
		if n < 0 || n > math.MaxUint32 {
			return fail(fmt.Sprintf("integer %d does not fit a REG_DWORD", n))
		}
		return fmt.Sprintf("dword:%08x", n), nil
	case policy.KindString:
		data, err := utf16z(v.Str())
		if err != nil {
			return fail(err.Error())
		}
		return "hex(2):" + hexBytes(data), nil
	case policy.KindEnum:
		return regQuote(v.Str()), nil
	case policy.KindStringList:
		var data []byte
		for _, item := range v.List() {
			if strings.ContainsRune(item, 0) {
				return fail("list item contains a NUL character")
			}
			b, err := utf16z(item)
			if err != nil {
				return fail(err.Error())
			}
			data = append(data, b...)
		}
		data = append(data, 0, 0)
		return "hex(7):" + hexBytes(data), nil
	}
	return fail(fmt.Sprintf("no registry encoding for kind %s", v.Kind()))
}

// utf16z encodes s as NUL-terminated UTF-16LE.
func utf16z(s string) ([]byte, error) {
	b, err := utf16Data.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, err
	}
	return append(b, 0, 0), nil
}

func hexBytes(b []byte) string {
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = fmt.Sprintf("%02x", c)
	}
	return strings.Join(parts, ",")
}

func regQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
