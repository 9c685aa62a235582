package newebpay

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Decrypt modes recorded on every opened envelope.
const (
	ModeStrict       = "strict"
	ModeLenientJSON  = "lenient-json"
	ModeLenientQuery = "lenient-query"
	ModeLenientRaw   = "lenient-raw"
)

var hexPattern = regexp.MustCompile(`^[0-9a-fA-F]+$`)

// Codec signs, verifies, encrypts and decrypts TradeInfo payloads with a
// static AES-256-CBC key/IV pair.
type Codec struct {
	key []byte
	iv  []byte
}

// Decrypted is the plaintext recovered from an envelope together with the
// strategy that recovered it.
type Decrypted struct {
	Plaintext string
	Mode      string
}

// Lenient reports whether the plaintext was recovered without padding validation.
func (d *Decrypted) Lenient() bool {
	return d != nil && d.Mode != ModeStrict
}

func NewCodec(hashKey, hashIV string) (*Codec, error) {
	switch len(hashKey) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("hash key must be 16, 24 or 32 bytes, got %d", len(hashKey))
	}
	if len(hashIV) != aes.BlockSize {
		return nil, fmt.Errorf("hash iv must be %d bytes, got %d", aes.BlockSize, len(hashIV))
	}
	return &Codec{key: []byte(hashKey), iv: []byte(hashIV)}, nil
}

// Sign computes the gateway's TradeSha over cipherText.
func (c *Codec) Sign(cipherText string) string {
	sum := sha256.Sum256([]byte("HashKey=" + string(c.key) + "&" + cipherText + "&HashIV=" + string(c.iv)))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// Verify returns the first candidate encoding of rawCipherText whose signature
// matches tag. The candidates are the raw value, its percent-decoded form and,
// when transport turned '+' into spaces, the space-to-plus restoration.
func (c *Codec) Verify(rawCipherText, tag string) (string, error) {
	want := strings.ToUpper(strings.TrimSpace(tag))
	if want == "" {
		return "", fmt.Errorf("%w: empty tag", ErrSignatureMismatch)
	}
	for _, candidate := range cipherTextCandidates(rawCipherText) {
		got := c.Sign(candidate)
		if subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1 {
			return candidate, nil
		}
	}
	return "", ErrSignatureMismatch
}

func cipherTextCandidates(raw string) []string {
	out := make([]string, 0, 4)
	seen := map[string]struct{}{}
	add := func(s string) {
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	add(raw)
	decoded, err := url.QueryUnescape(raw)
	if err == nil {
		add(decoded)
	}
	for _, s := range []string{raw, decoded} {
		if strings.Contains(s, " ") {
			add(strings.ReplaceAll(s, " ", "+"))
		}
	}
	return out
}

// Encrypt is the reference AES-CBC/PKCS#7 routine; the result is lowercase hex.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, c.iv).CryptBlocks(out, padded)
	return hex.EncodeToString(out), nil
}

// decryptStrategy is one tier of the ordered decrypt fallback chain.
type decryptStrategy struct {
	name string
	fn   func(c *Codec, data []byte) (*Decrypted, error)
}

var decryptStrategies = []decryptStrategy{
	{name: ModeStrict, fn: (*Codec).decryptStrict},
	{name: "lenient", fn: (*Codec).decryptLenient},
}

// Decrypt decodes cipherText (hex or base64) and runs the decrypt strategies
// in order, returning the first success.
func (c *Codec) Decrypt(cipherText string) (*Decrypted, error) {
	data, err := DecodeCipherText(cipherText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	var errs []error
	for _, s := range decryptStrategies {
		res, err := s.fn(c, data)
		if err == nil {
			return res, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
	}
	return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, errors.Join(errs...))
}

func (c *Codec) decryptStrict(data []byte) (*Decrypted, error) {
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("cipher text is not a whole number of blocks (%d bytes)", len(data))
	}
	plain, err := c.cbcDecrypt(data)
	if err != nil {
		return nil, err
	}
	unpadded, err := pkcs7Unpad(plain, aes.BlockSize)
	if err != nil {
		return nil, err
	}
	return &Decrypted{Plaintext: string(unpadded), Mode: ModeStrict}, nil
}

func (c *Codec) decryptLenient(data []byte) (*Decrypted, error) {
	whole := len(data) - len(data)%aes.BlockSize
	if whole == 0 {
		return nil, errors.New("cipher text shorter than one block")
	}
	plain, err := c.cbcDecrypt(data[:whole])
	if err != nil {
		return nil, err
	}
	text, mode := locatePayload(string(plain))
	return &Decrypted{Plaintext: text, Mode: mode}, nil
}

func (c *Codec) cbcDecrypt(data []byte) ([]byte, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, c.iv).CryptBlocks(out, data)
	return out, nil
}

// locatePayload finds the meaningful part of a plaintext whose padding could
// not be trusted.
func locatePayload(text string) (string, string) {
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		return text[start : end+1], ModeLenientJSON
	}
	if strings.Contains(text, "=") && strings.Contains(text, "&") {
		return text[:strings.LastIndex(text, "&")], ModeLenientQuery
	}
	return text, ModeLenientRaw
}

// DecodeCipherText accepts hex (even length, hex digits only) or base64 in
// standard or URL-safe alphabets, with or without padding.
func DecodeCipherText(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty cipher text")
	}
	if len(s)%2 == 0 && hexPattern.MatchString(s) {
		return hex.DecodeString(s)
	}
	return base64.StdEncoding.DecodeString(normalizeBase64(s))
}

func normalizeBase64(s string) string {
	s = strings.ReplaceAll(s, " ", "+")
	s = strings.NewReplacer("\r", "", "\n", "", "\t", "", "-", "+", "_", "/").Replace(s)
	s = strings.TrimRight(s, "=")
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	return s
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, fmt.Errorf("invalid padding size %d", n)
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, errors.New("invalid padding bytes")
		}
	}
	return b[:len(b)-n], nil
}
