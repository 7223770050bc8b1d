package verifier

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// VerifyDetachedSignature checks a detached OpenPGP signature over
// dataPath against the public keys in keyringPath. Both binary and
// armored keyrings and signatures are accepted.
func VerifyDetachedSignature(dataPath, sigPath, keyringPath string) error {
	keyring, err := readKeyring(keyringPath)
	if err != nil {
		return err
	}

	data, err := os.Open(dataPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filepath.Base(dataPath), err)
	}
	defer data.Close()

	sig, err := os.Open(sigPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filepath.Base(sigPath), err)
	}
	defer sig.Close()

	if _, err := openpgp.CheckDetachedSignature(keyring, data, sig, nil); err != nil {
		// Rewind and retry as an armored signature.
		if _, serr := data.Seek(0, 0); serr != nil {
			return fmt.Errorf("rewinding %s: %w", filepath.Base(dataPath), serr)
		}
		if _, serr := sig.Seek(0, 0); serr != nil {
			return fmt.Errorf("rewinding %s: %w", filepath.Base(sigPath), serr)
		}
		if _, aerr := openpgp.CheckArmoredDetachedSignature(keyring, data, sig, nil); aerr != nil {
			return fmt.Errorf("signature %s does not verify %s: %v",
				filepath.Base(sigPath), filepath.Base(dataPath), err)
		}
	}
	return nil
}

func readKeyring(path string) (openpgp.EntityList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening keyring %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	keyring, err := openpgp.ReadKeyRing(f)
	if err != nil {
		// Retry as an armored bundle.
		if _, serr := f.Seek(0, 0); serr != nil {
			return nil, fmt.Errorf("rewinding keyring %s: %w", filepath.Base(path), serr)
		}
		keyring, err = openpgp.ReadArmoredKeyRing(f)
		if err != nil {
			return nil, fmt.Errorf("reading keyring %s: %v", filepath.Base(path), err)
		}
	}
	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring %s contains no keys", filepath.Base(path))
	}
	return keyring, nil
}
