package signature

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/vswrite/agent-core/pkg/models"
)

func TestVerifyUnsigned(t *testing.T) {
	v := Verify(models.ExtensionManifest{ID: "sample", Name: "Sample", Version: "1.0.0"})
	if v.IsSigned || v.Status != StatusUnsigned {
		t.Fatalf("expected unsigned verdict, got %+v", v)
	}
}

func TestVerifyTrustedPublisherRoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	const testPublisher = "test-publisher"
	trustedPublishers[testPublisher] = base64.StdEncoding.EncodeToString(pub)
	defer delete(trustedPublishers, testPublisher)

	m := models.ExtensionManifest{ID: "sample", Name: "Sample", Version: "1.0.0", PublicKeyID: testPublisher}
	digest, err := signableDigest(m)
	if err != nil {
		t.Fatal(err)
	}
	m.Signature = base64.StdEncoding.EncodeToString(ed25519.Sign(priv, digest))

	v := Verify(m)
	if !v.IsSigned || !v.IsValid || !v.IsTrusted || v.Status != StatusVerified {
		t.Fatalf("expected verified trusted verdict, got %+v", v)
	}
}

func TestVerifySelfSignedUntrusted(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	m := models.ExtensionManifest{
		ID: "sample", Name: "Sample", Version: "1.0.0",
		PublicKeyID: "unknown-publisher",
		PublicKey:   base64.StdEncoding.EncodeToString(pub),
	}
	digest, err := signableDigest(m)
	if err != nil {
		t.Fatal(err)
	}
	m.Signature = base64.StdEncoding.EncodeToString(ed25519.Sign(priv, digest))

	v := Verify(m)
	if !v.IsValid || v.IsTrusted || v.Status != StatusUntrustedPublisher {
		t.Fatalf("expected valid-but-untrusted verdict, got %+v", v)
	}
}

func TestVerifyTamperedManifestFails(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	const testPublisher = "tamper-publisher"
	trustedPublishers[testPublisher] = base64.StdEncoding.EncodeToString(pub)
	defer delete(trustedPublishers, testPublisher)

	m := models.ExtensionManifest{ID: "sample", Name: "Sample", Version: "1.0.0", PublicKeyID: testPublisher}
	digest, err := signableDigest(m)
	if err != nil {
		t.Fatal(err)
	}
	m.Signature = base64.StdEncoding.EncodeToString(ed25519.Sign(priv, digest))

	m.Version = "2.0.0" // tamper after signing
	v := Verify(m)
	if v.IsValid || v.Status != StatusInvalidSignature {
		t.Fatalf("expected invalid signature verdict after tamper, got %+v", v)
	}
}

func TestVerifyMissingPublicKeyID(t *testing.T) {
	m := models.ExtensionManifest{ID: "sample", Name: "Sample", Version: "1.0.0", Signature: "deadbeef"}
	v := Verify(m)
	if v.Status != StatusInvalidSignature || v.IsValid {
		t.Fatalf("expected invalid-signature verdict for missing publicKeyId, got %+v", v)
	}
}

func TestCanonicalJSONSortsKeys(t *testing.T) {
	doc := map[string]any{"b": 1.0, "a": 2.0}
	out, err := canonicalJSON(doc)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"a":2,"b":1}`
	if string(out) != want {
		t.Fatalf("expected %s, got %s", want, out)
	}
}

func TestSignableDigestIsSHA256Length(t *testing.T) {
	m := models.ExtensionManifest{ID: "sample", Name: "Sample", Version: "1.0.0"}
	digest, err := signableDigest(m)
	if err != nil {
		t.Fatal(err)
	}
	if len(digest) != sha256.Size {
		t.Fatalf("expected digest length %d, got %d", sha256.Size, len(digest))
	}
}
