package hash

import "io"

// WriterToWithDomain is implemented by types which can write themselves to a
// hash transcript, and which know the domain string identifying their type.
//
// The domain keeps encodings of different types from colliding, even when the
// raw bytes they write happen to be equal.
type WriterToWithDomain interface {
	io.WriterTo

	// Domain returns a tag unique to the implementing type.
	Domain() string
}

// writeWithDomain frames a single object as `(<domain><data>)`.
//
// The parentheses delimit each object in the transcript, so concatenating
// framed objects remains unambiguous.
func writeWithDomain(w io.Writer, object WriterToWithDomain) error {
	if _, err := w.Write([]byte("(")); err != nil {
		return err
	}
	if _, err := w.Write([]byte(object.Domain())); err != nil {
		return err
	}
	if _, err := object.WriteTo(w); err != nil {
		return err
	}
	if _, err := w.Write([]byte(")")); err != nil {
		return err
	}
	return nil
}

// BytesWithDomain attaches a domain tag to a plain chunk of bytes, so that the
// chunk can be fed to a transcript as a WriterToWithDomain.
type BytesWithDomain struct {
	TheDomain string
	Bytes     []byte
}

// WriteTo implements io.WriterTo.
func (b BytesWithDomain) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.Bytes)
	return int64(n), err
}

// Domain implements WriterToWithDomain.
func (b BytesWithDomain) Domain() string {
	return b.TheDomain
}
