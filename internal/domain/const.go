package domain

const (
	// Paging constants
	DEFAULT_PAGE_SIZE     = 50
	MAX_PAGE_SIZE         = 1000
	DEFAULT_BID_PAGE_SIZE = 1000

	// Flow constants
	FLOW_EMULATOR_SERVICE_ADDRESS = "0xf8d6e0586b0a20c7"
)
