package protocol

// Context identifies one of the three isolated execution contexts.
type Context string

const (
	ContextSidebar    Context = "sidebar"
	ContextContent    Context = "content"
	ContextBackground Context = "background"
)

// Valid reports whether c is one of the three known contexts.
func (c Context) Valid() bool {
	switch c {
	case ContextSidebar, ContextContent, ContextBackground:
		return true
	}
	return false
}

// String returns the string representation of the context.
func (c Context) String() string {
	return string(c)
}

// MessageType discriminates envelopes. Only the enumerated values below are
// accepted by the security layer.
type MessageType string

// Plugin lifecycle
const (
	TypePing               MessageType = "PING"
	TypeInjectSDKPlugin    MessageType = "INJECT_SDK_PLUGIN"
	TypeCheckPluginStatus  MessageType = "CHECK_PLUGIN_STATUS"
	TypePluginStatusChange MessageType = "PLUGIN_STATUS_CHANGED"
)

// HTML capture
const (
	TypeCaptureHTML  MessageType = "CAPTURE_HTML"
	TypeGetHTMLChunk MessageType = "GET_HTML_CHUNK"
)

// Element picking
const (
	TypeStartElementPicker  MessageType = "START_ELEMENT_PICKER"
	TypeCancelElementPicker MessageType = "CANCEL_ELEMENT_PICKER"
	TypeElementSelected     MessageType = "ELEMENT_SELECTED"
)

// Visual editor lifecycle
const (
	TypeStartVisualEditor       MessageType = "START_VISUAL_EDITOR"
	TypeStopVisualEditor        MessageType = "STOP_VISUAL_EDITOR"
	TypeVisualEditorStatus      MessageType = "VISUAL_EDITOR_STATUS"
	TypeSetVisualEditorStarting MessageType = "SET_VISUAL_EDITOR_STARTING"
	TypeVisualEditorChanges     MessageType = "VISUAL_EDITOR_CHANGES"
)

// Preview
const (
	TypePreview             MessageType = "ABSMARTLY_PREVIEW"
	TypePreviewStateChanged MessageType = "PREVIEW_STATE_CHANGED"
)

// In-page editors, one open/close/save triple per editor kind
const (
	TypeOpenCodeEditor  MessageType = "OPEN_CODE_EDITOR"
	TypeCloseCodeEditor MessageType = "CLOSE_CODE_EDITOR"
	TypeSaveCodeEditor  MessageType = "SAVE_CODE_EDITOR"

	TypeOpenJSONEditor  MessageType = "OPEN_JSON_EDITOR"
	TypeCloseJSONEditor MessageType = "CLOSE_JSON_EDITOR"
	TypeSaveJSONEditor  MessageType = "SAVE_JSON_EDITOR"

	TypeOpenMarkdownEditor  MessageType = "OPEN_MARKDOWN_EDITOR"
	TypeCloseMarkdownEditor MessageType = "CLOSE_MARKDOWN_EDITOR"
	TypeSaveMarkdownEditor  MessageType = "SAVE_MARKDOWN_EDITOR"

	TypeOpenJavaScriptEditor  MessageType = "OPEN_JAVASCRIPT_EDITOR"
	TypeCloseJavaScriptEditor MessageType = "CLOSE_JAVASCRIPT_EDITOR"
	TypeSaveJavaScriptEditor  MessageType = "SAVE_JAVASCRIPT_EDITOR"
)

// Event viewer
const (
	TypeOpenEventViewer  MessageType = "OPEN_EVENT_VIEWER"
	TypeCloseEventViewer MessageType = "CLOSE_EVENT_VIEWER"
)

// SDK event capture and buffering
const (
	TypeSDKEvent            MessageType = "SDK_EVENT"
	TypeBufferEvent         MessageType = "BUFFER_EVENT"
	TypeGetBufferedEvents   MessageType = "GET_BUFFERED_EVENTS"
	TypeClearBufferedEvents MessageType = "CLEAR_BUFFERED_EVENTS"
)

// Storage and config access
const (
	TypeStorageGet    MessageType = "STORAGE_GET"
	TypeStorageSet    MessageType = "STORAGE_SET"
	TypeStorageRemove MessageType = "STORAGE_REMOVE"
	TypeGetConfig     MessageType = "GET_CONFIG"
)

var knownTypes = map[MessageType]struct{}{
	TypePing:               {},
	TypeInjectSDKPlugin:    {},
	TypeCheckPluginStatus:  {},
	TypePluginStatusChange: {},

	TypeCaptureHTML:  {},
	TypeGetHTMLChunk: {},

	TypeStartElementPicker:  {},
	TypeCancelElementPicker: {},
	TypeElementSelected:     {},

	TypeStartVisualEditor:       {},
	TypeStopVisualEditor:        {},
	TypeVisualEditorStatus:      {},
	TypeSetVisualEditorStarting: {},
	TypeVisualEditorChanges:     {},

	TypePreview:             {},
	TypePreviewStateChanged: {},

	TypeOpenCodeEditor:  {},
	TypeCloseCodeEditor: {},
	TypeSaveCodeEditor:  {},

	TypeOpenJSONEditor:  {},
	TypeCloseJSONEditor: {},
	TypeSaveJSONEditor:  {},

	TypeOpenMarkdownEditor:  {},
	TypeCloseMarkdownEditor: {},
	TypeSaveMarkdownEditor:  {},

	TypeOpenJavaScriptEditor:  {},
	TypeCloseJavaScriptEditor: {},
	TypeSaveJavaScriptEditor:  {},

	TypeOpenEventViewer:  {},
	TypeCloseEventViewer: {},

	TypeSDKEvent:            {},
	TypeBufferEvent:         {},
	TypeGetBufferedEvents:   {},
	TypeClearBufferedEvents: {},

	TypeStorageGet:    {},
	TypeStorageSet:    {},
	TypeStorageRemove: {},
	TypeGetConfig:     {},
}

// Known reports whether t belongs to the closed set of recognized types.
func (t MessageType) Known() bool {
	_, ok := knownTypes[t]
	return ok
}

// String returns the string representation of the message type.
func (t MessageType) String() string {
	return string(t)
}

// KnownTypes returns a copy of the allow-list, for diagnostics.
func KnownTypes() []MessageType {
	out := make([]MessageType, 0, len(knownTypes))
	for t := range knownTypes {
		out = append(out, t)
	}
	return out
}

// Relay wire markers. Only the postMessage relay carries these; they separate
// extension traffic from arbitrary third-party postMessage noise on the page.
const (
	SourceExtension = "absmartly-extension"
	SourceResponse  = "absmartly-extension-response"
)

// TopFrameID is the frame id browsers assign to the top-level frame of a tab.
const TopFrameID = 0

// SidebarIframeID is the element id of the sidebar iframe in harness mode.
// The content-script relay resolves this element and accepts postMessage
// traffic only from its content window.
const SidebarIframeID = "absmartly-sidebar-iframe"

// Sender carries the transport-level metadata about who delivered an
// envelope. The native transport fills it from the browser's sender object;
// the relay synthesizes it for traffic that already passed the window
// identity check.
type Sender struct {
	// ExtensionID is the id of the extension the message originated from.
	ExtensionID string

	// FrameID is the originating frame within the tab, when known.
	// Nil means the browser did not report one.
	FrameID *int

	// TabID is the originating tab, when the message came from a content
	// script. Zero when not applicable.
	TabID int
}

// TopFrame returns a Sender pinned to the top-level frame, used by the relay
// for traffic it has already authenticated by window identity.
func TopFrame(extensionID string) Sender {
	frame := TopFrameID
	return Sender{ExtensionID: extensionID, FrameID: &frame}
}
