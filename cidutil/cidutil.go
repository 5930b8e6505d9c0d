package cidutil

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// ContentID returns a CIDv1 using the "raw" multicodec and a sha2-256
// multihash of data. Program sources and records are identified this way.
func ContentID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// ContentIDString is ContentID in string form. It returns "" only if
// hashing fails, which multihash.Sum does not do for SHA2_256.
func ContentIDString(data []byte) string {
	id, err := ContentID(data)
	if err != nil {
		return ""
	}
	return id.String()
}

// Verify reports whether data hashes to want.
func Verify(data []byte, want string) error {
	expected, err := cid.Decode(want)
	if err != nil || !expected.Defined() {
		return fmt.Errorf("cidutil: invalid cid %q", want)
	}
	got, err := ContentID(data)
	if err != nil {
		return err
	}
	if !got.Equals(expected) {
		return fmt.Errorf("cidutil: content is %s, expected %s", got, expected)
	}
	return nil
}
