package s11n

import (
	"io"
	"strings"
)

var (
	qch_dquote = []byte{'"'}
	qch_quote  = []byte{'\''}
)

// DumpQuotedString writes s as a quoted literal, preferring double
// quotes. When s contains both kinds of quotes the double quotes are
// written as character references.
func DumpQuotedString(out io.Writer, s string) error {
	dqi := strings.IndexByte(s, qch_dquote[0])
	if dqi < 0 {
		// double quote is allowed, cool!
		return writeQuoted(out, qch_dquote, s)
	}

	if qi := strings.IndexByte(s, qch_quote[0]); qi < 0 {
		// single quotes, then
		return writeQuoted(out, qch_quote, s)
	}

	// Grr, can't use " or '. Well, let's escape all the double
	// quotes, and quote the string
	if _, err := out.Write(qch_dquote); err != nil {
		return err
	}
	for dqi > -1 {
		if _, err := io.WriteString(out, s[:dqi]); err != nil {
			return err
		}
		if _, err := io.WriteString(out, "&#x22;"); err != nil {
			return err
		}
		s = s[dqi+1:]
		dqi = strings.IndexByte(s, qch_dquote[0])
	}
	if _, err := io.WriteString(out, s); err != nil {
		return err
	}
	_, err := out.Write(qch_dquote)
	return err
}

func writeQuoted(out io.Writer, q []byte, s string) error {
	if _, err := out.Write(q); err != nil {
		return err
	}
	if _, err := io.WriteString(out, s); err != nil {
		return err
	}
	_, err := out.Write(q)
	return err
}

// dumpExternalID writes "SYSTEM" or "PUBLIC" followed by the literals
// that are present
func dumpExternalID(out io.Writer, publicID, systemID string) error {
	if publicID == "" {
		_, _ = io.WriteString(out, "SYSTEM ")
		return DumpQuotedString(out, systemID)
	}

	_, _ = io.WriteString(out, "PUBLIC ")
	if err := DumpQuotedString(out, publicID); err != nil {
		return err
	}
	if systemID == "" {
		return nil
	}
	_, _ = io.WriteString(out, " ")
	return DumpQuotedString(out, systemID)
}
