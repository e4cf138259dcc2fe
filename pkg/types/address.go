package types

import (
	"fmt"
	"strconv"
	"strings"
)

// AddressEntry is one step of an Address: a member name, or a list index
// when Name is empty.
type AddressEntry struct {
	Name  string
	Index int
}

// Address locates a variable slot in a data model: a root variable name
// followed by member and index steps, as in "items[2].label".
type Address []AddressEntry

// Root returns the name of the root variable, or "" for an empty address.
func (a Address) Root() string {
	if len(a) == 0 {
		return ""
	}
	return a[0].Name
}

// String returns the canonical text of the address.
func (a Address) String() string {
	var sb strings.Builder
	for i, e := range a {
		if e.Name == "" {
			sb.WriteByte('[')
			sb.WriteString(strconv.Itoa(e.Index))
			sb.WriteByte(']')
			continue
		}
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(e.Name)
	}
	return sb.String()
}

// ParseAddress splits "name(.member|[index])*" into an Address.
func ParseAddress(text string) (Address, error) {
	var addr Address
	i := 0
	for i < len(text) {
		switch {
		case text[i] == '.':
			if len(addr) == 0 {
				return nil, fmt.Errorf("address %q: leading '.'", text)
			}
			i++
			name, n := scanIdent(text[i:])
			if n == 0 {
				return nil, fmt.Errorf("address %q: expected member name at %d", text, i)
			}
			addr = append(addr, AddressEntry{Name: name})
			i += n
		case text[i] == '[':
			if len(addr) == 0 {
				return nil, fmt.Errorf("address %q: leading '['", text)
			}
			end := strings.IndexByte(text[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("address %q: missing ']'", text)
			}
			idx, err := strconv.Atoi(text[i+1 : i+end])
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("address %q: invalid index %q", text, text[i+1:i+end])
			}
			addr = append(addr, AddressEntry{Index: idx})
			i += end + 1
		default:
			if len(addr) > 0 {
				return nil, fmt.Errorf("address %q: unexpected %q at %d", text, text[i], i)
			}
			name, n := scanIdent(text)
			if n == 0 {
				return nil, fmt.Errorf("address %q: expected variable name", text)
			}
			addr = append(addr, AddressEntry{Name: name})
			i += n
		}
	}
	if len(addr) == 0 {
		return nil, fmt.Errorf("empty address")
	}
	return addr, nil
}

func scanIdent(s string) (string, int) {
	n := 0
	for n < len(s) {
		c := s[n]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (n > 0 && isDigit(c)) {
			n++
			continue
		}
		break
	}
	return s[:n], n
}

// AddressList is the ordered set of distinct addresses a program touches.
// Load and store instructions refer to its entries by index.
type AddressList []Address

// Index returns the slot of the address with the given canonical text.
func (l AddressList) Index(text string) (int, bool) {
	for i, a := range l {
		if a.String() == text {
			return i, true
		}
	}
	return -1, false
}

// Names returns the canonical text of every address, in slot order.
func (l AddressList) Names() []string {
	names := make([]string, len(l))
	for i, a := range l {
		names[i] = a.String()
	}
	return names
}
