package constants

// DocStatus is the lifecycle state of one document moving through the pipeline.
type DocStatus string

const (
	DocStatusDiscovered     DocStatus = "DISCOVERED"
	DocStatusTextExtracted  DocStatus = "TEXT_EXTRACTED"
	DocStatusModelQueried   DocStatus = "MODEL_QUERIED"
	DocStatusResponseParsed DocStatus = "RESPONSE_PARSED"
	DocStatusValidated      DocStatus = "VALIDATED"

	// terminal
	DocStatusApproved      DocStatus = "APPROVED"
	DocStatusFlagged       DocStatus = "FLAGGED"
	DocStatusParseFailed   DocStatus = "PARSE_FAILED"
	DocStatusExtractFailed DocStatus = "EXTRACT_FAILED"
	DocStatusRouteFailed   DocStatus = "ROUTE_FAILED"
)

// Terminal reports whether no further transition is possible from s.
func (s DocStatus) Terminal() bool {
	switch s {
	case DocStatusApproved, DocStatusFlagged, DocStatusParseFailed, DocStatusExtractFailed, DocStatusRouteFailed:
		return true
	}
	return false
}
