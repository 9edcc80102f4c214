package service

// QRCodeService renders QR codes for authenticator-app enrollment.
type QRCodeService interface {
	// DataURI encodes content as a PNG QR code and returns it as a
	// data: URI suitable for direct embedding in an <img> tag.
	DataURI(content string) (string, error)
}
