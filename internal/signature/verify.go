// Package signature verifies Ed25519 signatures on extension manifests
// against a compile-time trusted-publisher table.
package signature

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"sort"

	"github.com/vswrite/agent-core/pkg/models"
)

// trustedPublishers maps publisher id to a base64-encoded 32-byte Ed25519
// verifying key. Seeded with the official vswrite signing key carried
// forward from the desktop product's extension installer.
var trustedPublishers = map[string]string{
	"vswrite-official": "Nqh5oHbH6TO6WrAV1r64m0Z8FWhQru7Ku75tDmMNqkA=",
}

// Status classifies a verification outcome for the doctor/health report.
type Status string

const (
	StatusUnsigned           Status = "unsigned"
	StatusVerified           Status = "verified"
	StatusUntrustedPublisher Status = "untrusted_publisher"
	StatusInvalidSignature   Status = "invalid_signature"
)

// Verdict is the structured result of verifying one manifest.
type Verdict struct {
	IsSigned    bool   `json:"is_signed"`
	IsValid     bool   `json:"is_valid"`
	PublisherID string `json:"publisher_id,omitempty"`
	IsTrusted   bool   `json:"is_trusted"`
	Status      Status `json:"status"`
	Error       string `json:"error,omitempty"`
}

// Verify checks manifest's signature, if any, against the trusted-publisher
// table, falling back to an embedded publicKey for self-signed manifests
// (always marked untrusted in that case).
func Verify(manifest models.ExtensionManifest) Verdict {
	if manifest.Signature == "" {
		return Verdict{IsSigned: false, Status: StatusUnsigned}
	}
	if manifest.PublicKeyID == "" {
		return Verdict{
			IsSigned: true,
			Status:   StatusInvalidSignature,
			Error:    "signature present but publicKeyId is missing",
		}
	}

	keyB64, trusted := trustedPublishers[manifest.PublicKeyID]
	if !trusted {
		keyB64 = manifest.PublicKey
	}
	if keyB64 == "" {
		return Verdict{
			IsSigned:    true,
			PublisherID: manifest.PublicKeyID,
			IsTrusted:   false,
			Status:      StatusUntrustedPublisher,
			Error:       "public key not found for publisher",
		}
	}

	pubKeyBytes, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil || len(pubKeyBytes) != ed25519.PublicKeySize {
		return Verdict{
			IsSigned:    true,
			PublisherID: manifest.PublicKeyID,
			IsTrusted:   trusted,
			Status:      StatusInvalidSignature,
			Error:       "invalid public key encoding or length",
		}
	}

	sigBytes, err := base64.StdEncoding.DecodeString(manifest.Signature)
	if err != nil {
		return Verdict{
			IsSigned:    true,
			PublisherID: manifest.PublicKeyID,
			IsTrusted:   trusted,
			Status:      StatusInvalidSignature,
			Error:       "invalid signature encoding",
		}
	}

	digest, err := signableDigest(manifest)
	if err != nil {
		return Verdict{
			IsSigned:    true,
			PublisherID: manifest.PublicKeyID,
			IsTrusted:   trusted,
			Status:      StatusInvalidSignature,
			Error:       "failed to canonicalize manifest: " + err.Error(),
		}
	}

	valid := ed25519.Verify(ed25519.PublicKey(pubKeyBytes), digest, sigBytes)
	if !valid {
		return Verdict{
			IsSigned:    true,
			PublisherID: manifest.PublicKeyID,
			IsTrusted:   trusted,
			Status:      StatusInvalidSignature,
			Error:       "signature verification failed",
		}
	}
	if !trusted {
		return Verdict{
			IsSigned:    true,
			IsValid:     true,
			PublisherID: manifest.PublicKeyID,
			IsTrusted:   false,
			Status:      StatusUntrustedPublisher,
		}
	}
	return Verdict{
		IsSigned:    true,
		IsValid:     true,
		PublisherID: manifest.PublicKeyID,
		IsTrusted:   true,
		Status:      StatusVerified,
	}
}

// signableDigest reproduces the bytes that were signed: the manifest as a
// generic JSON document with signature, signatureAlgorithm, and
// publicKeyId removed, re-encoded with sorted keys and no extra
// whitespace, then SHA-256 hashed.
func signableDigest(manifest models.ExtensionManifest) ([]byte, error) {
	raw, err := json.Marshal(manifest)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	delete(doc, "signature")
	delete(doc, "signatureAlgorithm")
	delete(doc, "publicKeyId")

	canonical, err := canonicalJSON(doc)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(canonical)
	return sum[:], nil
}

// canonicalJSON serializes v with map keys sorted at every level, matching
// the deterministic encoding the signer used.
func canonicalJSON(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := []byte("{")
		for i, k := range keys {
			if i > 0 {
				out = append(out, ',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			out = append(out, kb...)
			out = append(out, ':')
			vb, err := canonicalJSON(val[k])
			if err != nil {
				return nil, err
			}
			out = append(out, vb...)
		}
		out = append(out, '}')
		return out, nil
	case []any:
		out := []byte("[")
		for i, item := range val {
			if i > 0 {
				out = append(out, ',')
			}
			ib, err := canonicalJSON(item)
			if err != nil {
				return nil, err
			}
			out = append(out, ib...)
		}
		out = append(out, ']')
		return out, nil
	default:
		return json.Marshal(val)
	}
}
