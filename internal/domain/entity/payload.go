package entity

import "encoding/base64"

// ImagePayload is an image resolved to bytes and ready to be transmitted.
type ImagePayload struct {
	MIMEType string
	Data     []byte
}

// DataURL renders the payload as data:<mime>;base64,<data>.
func (p ImagePayload) DataURL() string {
	return "data:" + p.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}
