package command

import "encoding/xml"

// Part is one entry of the CompleteMultipartUpload manifest. Part numbers are
// 1-based and must be contiguous in upload order.
type Part struct {
	XMLName    xml.Name `xml:"Part"`
	PartNumber int      `xml:"PartNumber"`
	ETag       string   `xml:"ETag"`
}

// CompleteManifest is the XML body of a CompleteMultipartUpload request.
type CompleteManifest struct {
	XMLName xml.Name `xml:"CompleteMultipartUpload"`
	Parts   []Part   `xml:"Part"`
}

// Append adds a part to the manifest.
func (m *CompleteManifest) Append(p Part) {
	m.Parts = append(m.Parts, p)
}

// Encode renders the manifest as an XML document without a declaration,
// matching what S3 expects for the completion call.
func (m *CompleteManifest) Encode() []byte {
	out, err := xml.Marshal(m)
	if err != nil {
		// Marshalling a struct of ints and strings cannot fail.
		panic(err)
	}
	return out
}
