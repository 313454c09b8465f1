package dbcli

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"btreestore/database"

	"github.com/pkg/errors"
)

// Driver executes a line-oriented script against a single store:
//
//	insert <key> <text...>
//	delete <key>
//	retrieve <key>
//	decrypt <key>
//	print
//	export
//	count
//
// Blank lines and lines starting with # are ignored. Store-level failures
// (missing or duplicate keys) are reported on out and do not stop the script.
type Driver struct {
	store *database.Store
	key   [4]uint32
	nonce uint64
	out   io.Writer
}

func NewDriver(store *database.Store, key [4]uint32, nonce uint64, out io.Writer) *Driver {
	return &Driver{store: store, key: key, nonce: nonce, out: out}
}

// Run executes every line of r and stops at the first malformed line.
func (d *Driver) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		if err := d.Exec(scanner.Text()); err != nil {
			return errors.Wrapf(err, "line %d", line)
		}
	}
	return errors.Wrap(scanner.Err(), "failed to read script")
}

// Exec executes a single script line.
func (d *Driver) Exec(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	fields := strings.Fields(line)
	op := strings.ToLower(fields[0])

	switch op {
	case "print":
		return d.store.Display(d.out)

	case "export":
		list, err := d.store.Export()
		if err != nil {
			return err
		}
		for i, n := range list {
			fmt.Fprintf(d.out, "%d: %v\n", i, n.Keys)
		}
		return nil

	case "count":
		fmt.Fprintf(d.out, "entries=%d nodes=%d\n", d.store.Len(), d.store.NodeCount())
		return nil

	case "insert", "delete", "retrieve", "decrypt":
	default:
		return errors.Errorf("unknown operation %q", fields[0])
	}

	if len(fields) < 2 {
		return errors.Errorf("%s needs a key", op)
	}
	key, err := ParseKey(fields[1])
	if err != nil {
		return err
	}

	switch op {
	case "insert":
		text := ""
		if len(fields) > 2 {
			text = strings.Join(fields[2:], " ")
		}
		d.report(op, key, d.store.Insert(key, []byte(text), d.key, d.nonce), "")

	case "delete":
		d.report(op, key, d.store.Delete(key), "")

	case "retrieve":
		info, err := d.store.Retrieve(key)
		detail := ""
		if err == nil {
			detail = fmt.Sprintf("size=%d key=%v nonce=%d data=%s",
				info.Size, info.CryptoKey, info.Nonce, hex.EncodeToString(info.Data))
		}
		d.report(op, key, err, detail)

	case "decrypt":
		plain, err := d.store.Plaintext(key)
		d.report(op, key, err, strconv.Quote(string(plain)))
	}

	return nil
}

func (d *Driver) report(op string, key uint32, err error, detail string) {
	switch {
	case err != nil:
		fmt.Fprintf(d.out, "%s %d: %v\n", op, key, err)
	case detail != "":
		fmt.Fprintf(d.out, "%s %d: %s\n", op, key, detail)
	default:
		fmt.Fprintf(d.out, "%s %d: ok\n", op, key)
	}
}

// ParseKey parses a decimal uint32 key.
func ParseKey(s string) (uint32, error) {
	k, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid key %q", s)
	}
	return uint32(k), nil
}

// ParseCryptoKey parses four comma-separated uint32 words.
func ParseCryptoKey(s string) ([4]uint32, error) {
	var key [4]uint32

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return key, errors.Errorf("crypto key needs 4 comma-separated words, got %d", len(parts))
	}
	for i, p := range parts {
		w, err := strconv.ParseUint(strings.TrimSpace(p), 0, 32)
		if err != nil {
			return key, errors.Wrapf(err, "invalid crypto key word %q", p)
		}
		key[i] = uint32(w)
	}
	return key, nil
}
