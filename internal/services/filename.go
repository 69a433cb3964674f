package services

import (
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

const (
	storedNameSeparator = "__"
	storedNameTimestamp = "20060102_150405"
	fallbackBaseName    = "archivo"
	maxSanitizedLength  = 180
	maxExtensionLength  = 16
)

var windowsDeviceNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// clientBaseName drops any directory part a browser may have sent, using
// both slash styles.
func clientBaseName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSpace(name)
}

// fileExtension returns the lower-cased extension of the client filename.
func fileExtension(name string) string {
	return strings.ToLower(filepath.Ext(clientBaseName(name)))
}

// SanitizeFilename turns an untrusted client filename into a name made only
// of ASCII letters, digits, '.', '_' and '-'. Accented letters lose their
// marks, runs of whitespace become '_' and everything else is dropped. The
// extension is kept and lower-cased. It never returns an empty stem.
func SanitizeFilename(name string) string {
	base := norm.NFKD.String(clientBaseName(name))
	ext := filepath.Ext(base)

	stem := strings.Trim(asciiSafe(strings.TrimSuffix(base, ext)), "._")
	for strings.Contains(stem, "..") {
		stem = strings.ReplaceAll(stem, "..", ".")
	}
	if stem == "" {
		stem = fallbackBaseName
	}
	if _, reserved := windowsDeviceNames[strings.ToUpper(stem)]; reserved {
		stem = "_" + stem
	}

	safeExt := strings.ToLower(asciiSafe(ext))
	if safeExt == "." {
		safeExt = ""
	}
	if len(safeExt) > maxExtensionLength {
		safeExt = safeExt[:maxExtensionLength]
	}

	if len(stem)+len(safeExt) > maxSanitizedLength {
		stem = strings.TrimRight(stem[:maxSanitizedLength-len(safeExt)], "._")
	}
	return stem + safeExt
}

func asciiSafe(s string) string {
	var b strings.Builder
	pendingSpace := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case isASCIIAlnum(r) || r == '.' || r == '_' || r == '-':
			if pendingSpace {
				b.WriteByte('_')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// newUploadToken returns 8 random hex characters.
func newUploadToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// buildStoredName prefixes the sanitized name with the upload time and a
// random token, e.g. 20260115_093012_1f2e3d4c__Marcaciones_Enero.xlsx.
func buildStoredName(now time.Time, token, sanitized string) string {
	return now.Format(storedNameTimestamp) + "_" + token + storedNameSeparator + sanitized
}

// validStoredName reports whether name could have been produced by
// buildStoredName. Anything else is refused before touching storage.
func validStoredName(name string) bool {
	if name == "" || len(name) > 255 || strings.Contains(name, "..") {
		return false
	}
	if name[0] == '.' || name[0] == '-' {
		return false
	}
	for _, r := range name {
		if !(isASCIIAlnum(r) || r == '.' || r == '_' || r == '-') {
			return false
		}
	}
	return true
}
