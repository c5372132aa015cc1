package domain

// Column headers expected in every transaction export file.
const (
	ColumnBlockTimestamp = "BLOCK_TIMESTAMP"
	ColumnAmount         = "AMOUNT"
	ColumnTxHash         = "TX_HASH"
	ColumnAccount        = "ACCOUNT"
	ColumnToken          = "TOKEN"
	ColumnEvent          = "EVENT"
)

// RequiredColumns returns the export headers a file must carry to be loaded.
func RequiredColumns() []string {
	return []string{
		ColumnBlockTimestamp,
		ColumnAmount,
		ColumnTxHash,
		ColumnAccount,
		ColumnToken,
		ColumnEvent,
	}
}

// TransactionRecord is one row of a transaction export as loaded from disk.
// The timestamp is kept as raw text until normalization; empty identifier
// fields mean the cell was missing.
type TransactionRecord struct {
	SourceFile   string  `json:"source_file"`
	RawTimestamp string  `json:"block_timestamp"`
	Amount       float64 `json:"amount"`
	AmountValid  bool    `json:"amount_valid"`
	TxHash       string  `json:"tx_hash"`
	Account      string  `json:"account"`
	Token        string  `json:"token"`
	Event        string  `json:"event"`
}

// GroupKey names the record field a grouped aggregate is keyed by.
type GroupKey string

const (
	GroupByToken   GroupKey = "token"
	GroupByEvent   GroupKey = "event"
	GroupByAccount GroupKey = "account"
)

// Key returns the record's value for the given grouping, and whether it is present.
func (r TransactionRecord) Key(k GroupKey) (string, bool) {
	var v string
	switch k {
	case GroupByToken:
		v = r.Token
	case GroupByEvent:
		v = r.Event
	case GroupByAccount:
		v = r.Account
	}
	return v, v != ""
}
