package constants

import (
	"time"
)

// Application identity
const (
	// AppName is used for the binary, the settings directory and the env prefix.
	AppName = "dbx-sync"

	// EnvPrefix is the prefix for settings environment variables (DBX_SYNC_SYNC_ROOT, ...).
	EnvPrefix = "DBX_SYNC"
)

// Local sync folder layout
const (
	// DefaultWorkspaceSubfolder is the folder below the sync root that mirrors the remote workspace.
	DefaultWorkspaceSubfolder = "Workspace"

	// DefaultSyncRootName is the sync root folder name created under the user's home directory.
	DefaultSyncRootName = "Databricks"
)

// Tree refresh and click handling
const (
	// DefaultRefreshDelay - debounce window for tree refreshes requested by node actions (500ms).
	// Requests for the same target inside the window are coalesced into one refresh.
	DefaultRefreshDelay = 500 * time.Millisecond

	// DefaultDoubleClickWindow - maximum gap between two clicks on the same node
	// for them to count as a double click (400ms).
	DefaultDoubleClickWindow = 400 * time.Millisecond
)

// Host command identifiers
const (
	// CommandRefresh refreshes the workspace tree. Args: forceReload flag, optional target node.
	CommandRefresh = "databricksWorkspace.refresh"

	// CommandClick dispatches a click on a workspace tree item.
	CommandClick = "databricksWorkspaceItem.click"
)

// Event bus buffer sizes
const (
	// EventBusDefaultBuffer - default buffer size for event channels (256)
	EventBusDefaultBuffer = 256

	// EventBusMaxBuffer - maximum buffer size for event channels (2048)
	EventBusMaxBuffer = 2048
)

// Concurrent directory sync
const (
	// DefaultMaxConcurrent - default concurrent notebook transfers during a directory sync
	DefaultMaxConcurrent = 4

	// MinMaxConcurrent - minimum concurrent operations (sequential mode)
	MinMaxConcurrent = 1

	// MaxMaxConcurrent - maximum concurrent operations allowed
	MaxMaxConcurrent = 16
)

// HTTP Client Timeouts
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (30 seconds)
	HTTPTLSHandshakeTimeout = 30 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second

	// HTTPClientTimeout - overall timeout for a single workspace API request (120 seconds).
	// Exports of large notebooks come back in one response body.
	HTTPClientTimeout = 120 * time.Second
)

// API client retry settings passed to retryablehttp
const (
	// APIRetryMax - retries after the first attempt
	APIRetryMax = 4

	// APIRetryWaitMin - minimum wait between retries
	APIRetryWaitMin = 500 * time.Millisecond

	// APIRetryWaitMax - maximum wait between retries
	APIRetryWaitMax = 10 * time.Second
)
