package schema

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// memberName resolves the member a selector reads. A selector must be a
// method expression on recv, e.g. (*Forum).Announcement; closures, method
// values and functions of other types are rejected.
func memberName(sel any, recv reflect.Type) (string, error) {
	v := reflect.ValueOf(sel)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return "", fmt.Errorf("selector is nil")
	}
	fn := runtime.FuncForPC(v.Pointer())
	if fn == nil {
		return "", fmt.Errorf("selector has no symbol")
	}
	symbol := fn.Name()
	if strings.HasSuffix(symbol, "-fm") {
		return "", fmt.Errorf("selector %s is a method value; use a method expression such as (*T).Member", symbol)
	}

	dot := strings.LastIndex(symbol, ".")
	if dot < 0 {
		return "", fmt.Errorf("selector %s is not a member access", symbol)
	}
	qualifier, member := symbol[:dot], symbol[dot+1:]

	base := recv
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	typeName := base.Name()
	if i := strings.IndexByte(typeName, '['); i >= 0 {
		typeName = typeName[:i]
	}
	if typeName == "" {
		return "", fmt.Errorf("selector receiver %s is not a named type", recv)
	}

	if !receiverMatches(qualifier, base.PkgPath(), typeName) {
		return "", fmt.Errorf("selector %s is not a member access on %s", symbol, recv)
	}
	if _, ok := reflect.PointerTo(base).MethodByName(member); !ok {
		return "", fmt.Errorf("selector %s is not a member access on %s", symbol, recv)
	}
	return member, nil
}

// receiverMatches checks the qualifier of a method symbol against the
// receiver type. Symbols look like pkg/path.(*T).M or pkg/path.T.M, with
// generic receivers rendered as T[...].
func receiverMatches(qualifier, pkgPath, typeName string) bool {
	rest, ok := strings.CutPrefix(qualifier, symbolPath(pkgPath)+".")
	if !ok {
		return false
	}
	if i := strings.IndexByte(rest, '['); i >= 0 {
		if !strings.HasSuffix(rest, "]") && !strings.HasSuffix(rest, "])") {
			return false
		}
		if strings.HasPrefix(rest, "(*") {
			rest = "(*" + rest[2:i] + ")"
		} else {
			rest = rest[:i]
		}
	}
	return rest == "(*"+typeName+")" || rest == typeName
}

// symbolPath escapes an import path the way the linker does in symbol
// names, so gopkg.in/yaml.v3 becomes gopkg.in/yaml%2ev3
func symbolPath(pkgPath string) string {
	slash := strings.LastIndexByte(pkgPath, '/')
	needs := func(i int, c byte) bool {
		return c <= ' ' || c == '%' || c == '"' || c >= 0x7f || (c == '.' && i > slash)
	}

	n := 0
	for i := 0; i < len(pkgPath); i++ {
		if needs(i, pkgPath[i]) {
			n++
		}
	}
	if n == 0 {
		return pkgPath
	}

	const hex = "0123456789abcdef"
	b := make([]byte, 0, len(pkgPath)+2*n)
	for i := 0; i < len(pkgPath); i++ {
		c := pkgPath[i]
		if needs(i, c) {
			b = append(b, '%', hex[c>>4], hex[c&0xf])
			continue
		}
		b = append(b, c)
	}
	return string(b)
}

func probeable(t reflect.Type) bool {
	return t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct
}

// probe returns a usable value of W for calling descriptor methods at build
// time. Pointer wrappers get a fresh zero instance so promoted methods of
// embedded fields do not dereference nil.
func probe[W any]() W {
	var zero W
	if t := reflect.TypeFor[W](); probeable(t) {
		return reflect.New(t.Elem()).Interface().(W)
	}
	return zero
}
