package perfmon

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

const (
	soapAction = "perfmonCollectCounterData"
	// servicePath is appended to https://<server>.
	servicePath = "/perfmonservice/services/PerfmonPort"
)

// ErrNoCounterArray is returned when a response carries no ArrayOfCounterInfo element.
var ErrNoCounterArray = errors.New("response has no ArrayOfCounterInfo")

const envelopeHead = `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:soap="http://schemas.cisco.com/ast/soap">` +
	`<soapenv:Header/><soapenv:Body><soap:perfmonCollectCounterData><soap:Host>`

// buildEnvelope renders the perfmonCollectCounterData request for host and object.
func buildEnvelope(host, object string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(envelopeHead)
	if err := xml.EscapeText(&buf, []byte(host)); err != nil {
		return nil, err
	}
	buf.WriteString(`</soap:Host><soap:Object>`)
	if err := xml.EscapeText(&buf, []byte(object)); err != nil {
		return nil, err
	}
	buf.WriteString(`</soap:Object></soap:perfmonCollectCounterData></soapenv:Body></soapenv:Envelope>`)
	return buf.Bytes(), nil
}

// counterInfo is one <item> of ArrayOfCounterInfo.
type counterInfo struct {
	Name  string `xml:"Name"`
	Value string `xml:"Value"`
}

type counterArray struct {
	Items []counterInfo `xml:",any"`
}

// decodeCounterArray streams the response and decodes the first
// ArrayOfCounterInfo element, whatever its namespace or depth.
func decodeCounterArray(r io.Reader) ([]counterInfo, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, ErrNoCounterArray
		}
		if err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "ArrayOfCounterInfo" {
			continue
		}
		var arr counterArray
		if err := dec.DecodeElement(&arr, &start); err != nil {
			return nil, fmt.Errorf("decode ArrayOfCounterInfo: %w", err)
		}
		return arr.Items, nil
	}
}
