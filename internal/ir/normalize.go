package ir

import "golang.org/x/text/unicode/norm"

// NormalizePageID returns id in Unicode NFC form, so that visually
// identical page ids address the same page.
func NormalizePageID(id string) PageID {
	return PageID(norm.NFC.String(id))
}

// NormalizeFingerprint returns fp in Unicode NFC form.
func NormalizeFingerprint(fp string) Fingerprint {
	return Fingerprint(norm.NFC.String(fp))
}
