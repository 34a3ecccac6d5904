package perfmon

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEnvelope(t *testing.T) {
	body, err := buildEnvelope("cucm<pub>", "Cisco SIP")
	require.NoError(t, err)

	s := string(body)
	assert.Contains(t, s, "<soap:perfmonCollectCounterData>")
	assert.Contains(t, s, "<soap:Host>cucm&lt;pub&gt;</soap:Host>")
	assert.Contains(t, s, "<soap:Object>Cisco SIP</soap:Object>")
	assert.True(t, strings.HasSuffix(s, "</soapenv:Envelope>"))
}

func TestDecodeCounterArray(t *testing.T) {
	f, err := os.Open("testdata/sip_response.xml")
	require.NoError(t, err)
	defer f.Close()

	items, err := decodeCounterArray(f)
	require.NoError(t, err)
	require.Len(t, items, 5)
	assert.Equal(t, `\\cucm-pub\Cisco SIP(trunk01)\CallsInProgress`, items[0].Name)
	assert.Equal(t, "5", items[0].Value)
	assert.Equal(t, "n/a", items[4].Value)
}

func TestDecodeCounterArrayEmpty(t *testing.T) {
	items, err := decodeCounterArray(strings.NewReader(
		`<Envelope><Body><Response><ArrayOfCounterInfo/></Response></Body></Envelope>`))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDecodeCounterArrayMissing(t *testing.T) {
	_, err := decodeCounterArray(strings.NewReader(
		`<Envelope><Body><Fault><faultstring>denied</faultstring></Fault></Body></Envelope>`))
	assert.ErrorIs(t, err, ErrNoCounterArray)
}

func TestDecodeCounterArrayMalformed(t *testing.T) {
	_, err := decodeCounterArray(strings.NewReader(`<Envelope><Body>`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoCounterArray)
}
