package apiv1

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The served spec must stay loadable and internally consistent; the swagger
// middleware renders it verbatim to API consumers.
func TestOpenAPISpecIsValid(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile("../../../public/docs/v1/openapi.yml")
	require.NoError(t, err)

	require.NoError(t, doc.Validate(context.Background()))

	assert.Equal(t, "NordKorb API", doc.Info.Title)
	assert.NotNil(t, doc.Paths.Find("/ping"))
	assert.NotNil(t, doc.Paths.Find("/scheduler/run-due-cycle"))
	assert.NotNil(t, doc.Paths.Find("/scheduler/expire-stale"))
}
