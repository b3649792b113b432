package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextValid(t *testing.T) {
	assert.True(t, ContextSidebar.Valid())
	assert.True(t, ContextContent.Valid())
	assert.True(t, ContextBackground.Valid())
	assert.False(t, Context("popup").Valid())
	assert.False(t, Context("").Valid())
}

func TestMessageTypeKnown(t *testing.T) {
	known := []MessageType{
		TypePing,
		TypeInjectSDKPlugin,
		TypeCaptureHTML,
		TypeGetHTMLChunk,
		TypeStartElementPicker,
		TypeCancelElementPicker,
		TypeStartVisualEditor,
		TypeStopVisualEditor,
		TypePreview,
		TypePreviewStateChanged,
		TypeOpenCodeEditor,
		TypeSaveJSONEditor,
		TypeCloseMarkdownEditor,
		TypeOpenJavaScriptEditor,
		TypeOpenEventViewer,
		TypeElementSelected,
		TypeVisualEditorChanges,
		TypeSDKEvent,
		TypeBufferEvent,
		TypeGetBufferedEvents,
		TypeClearBufferedEvents,
		TypeStorageGet,
		TypeStorageSet,
		TypeStorageRemove,
		TypeGetConfig,
	}
	for _, mt := range known {
		assert.True(t, mt.Known(), "expected %s to be known", mt)
	}

	assert.False(t, MessageType("").Known())
	assert.False(t, MessageType("DROP_TABLES").Known())
	assert.False(t, MessageType("ping").Known(), "allow-list is case sensitive")
}

func TestEditorTriplesComplete(t *testing.T) {
	// Each in-page editor kind has its open/close/save triple.
	triples := [][]MessageType{
		{TypeOpenCodeEditor, TypeCloseCodeEditor, TypeSaveCodeEditor},
		{TypeOpenJSONEditor, TypeCloseJSONEditor, TypeSaveJSONEditor},
		{TypeOpenMarkdownEditor, TypeCloseMarkdownEditor, TypeSaveMarkdownEditor},
		{TypeOpenJavaScriptEditor, TypeCloseJavaScriptEditor, TypeSaveJavaScriptEditor},
	}
	for _, triple := range triples {
		for _, mt := range triple {
			assert.True(t, mt.Known(), "expected %s to be known", mt)
		}
	}
}

func TestTopFrame(t *testing.T) {
	sender := TopFrame("my-extension")

	assert.Equal(t, "my-extension", sender.ExtensionID)
	if assert.NotNil(t, sender.FrameID) {
		assert.Equal(t, TopFrameID, *sender.FrameID)
	}
}

func TestKnownTypesCopy(t *testing.T) {
	types := KnownTypes()
	assert.NotEmpty(t, types)
	assert.Len(t, types, len(KnownTypes()))
}
