package dataprocessing

import (
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"txreport/pkg/contracts/domain"
)

// Column positions in TableSchema.
const (
	colBlockTimestamp = iota
	colAmount
	colTxHash
	colAccount
	colToken
	colEvent
	colSourceFile
)

// TableSchema returns the Arrow schema of the combined transaction table.
//
// Fields:
//   - block_timestamp: timestamp[us, UTC] (null when missing or unparseable)
//   - amount: float64 (null when the AMOUNT cell was empty)
//   - tx_hash, account, token, event: string (null when the cell was empty)
//   - source_file: string - path of the export the row came from
func TableSchema() *arrow.Schema {
	return arrow.NewSchema(
		[]arrow.Field{
			{Name: "block_timestamp", Type: &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}, Nullable: true},
			{Name: "amount", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
			{Name: "tx_hash", Type: arrow.BinaryTypes.String, Nullable: true},
			{Name: "account", Type: arrow.BinaryTypes.String, Nullable: true},
			{Name: "token", Type: arrow.BinaryTypes.String, Nullable: true},
			{Name: "event", Type: arrow.BinaryTypes.String, Nullable: true},
			{Name: "source_file", Type: arrow.BinaryTypes.String, Nullable: true},
		},
		nil,
	)
}

// Table is the in-memory combined transaction table. It is immutable once
// built; Release frees the underlying Arrow buffers.
type Table struct {
	record     arrow.Record
	timestamps *array.Timestamp
	amounts    *array.Float64
	txHashes   *array.String
	accounts   *array.String
	tokens     *array.String
	events     *array.String
	sources    *array.String
}

func newTable(record arrow.Record) *Table {
	return &Table{
		record:     record,
		timestamps: record.Column(colBlockTimestamp).(*array.Timestamp),
		amounts:    record.Column(colAmount).(*array.Float64),
		txHashes:   record.Column(colTxHash).(*array.String),
		accounts:   record.Column(colAccount).(*array.String),
		tokens:     record.Column(colToken).(*array.String),
		events:     record.Column(colEvent).(*array.String),
		sources:    record.Column(colSourceFile).(*array.String),
	}
}

// Len returns the number of rows
func (t *Table) Len() int {
	return int(t.record.NumRows())
}

// Record exposes the underlying Arrow record
func (t *Table) Record() arrow.Record {
	return t.record
}

// Release frees the table's memory
func (t *Table) Release() {
	t.record.Release()
}

// Timestamp returns the normalized block timestamp of row i
func (t *Table) Timestamp(i int) (time.Time, bool) {
	if t.timestamps.IsNull(i) {
		return time.Time{}, false
	}
	return t.timestamps.Value(i).ToTime(arrow.Microsecond).UTC(), true
}

// Amount returns the amount of row i
func (t *Table) Amount(i int) (float64, bool) {
	if t.amounts.IsNull(i) {
		return 0, false
	}
	return t.amounts.Value(i), true
}

// TxHash returns the transaction hash of row i
func (t *Table) TxHash(i int) (string, bool) { return stringAt(t.txHashes, i) }

// Account returns the account of row i
func (t *Table) Account(i int) (string, bool) { return stringAt(t.accounts, i) }

// Token returns the token of row i
func (t *Table) Token(i int) (string, bool) { return stringAt(t.tokens, i) }

// Event returns the event of row i
func (t *Table) Event(i int) (string, bool) { return stringAt(t.events, i) }

// SourceFile returns the export file row i was read from
func (t *Table) SourceFile(i int) (string, bool) { return stringAt(t.sources, i) }

// Key returns the grouping key of row i
func (t *Table) Key(k domain.GroupKey, i int) (string, bool) {
	switch k {
	case domain.GroupByToken:
		return t.Token(i)
	case domain.GroupByEvent:
		return t.Event(i)
	case domain.GroupByAccount:
		return t.Account(i)
	}
	return "", false
}

func stringAt(col *array.String, i int) (string, bool) {
	if col.IsNull(i) {
		return "", false
	}
	return col.Value(i), true
}

// tableBuilder appends normalized rows column by column
type tableBuilder struct {
	builder    *array.RecordBuilder
	timestamps *array.TimestampBuilder
	amounts    *array.Float64Builder
	strs       []*array.StringBuilder
}

func newTableBuilder(capacity int) *tableBuilder {
	b := array.NewRecordBuilder(memory.DefaultAllocator, TableSchema())
	b.Reserve(capacity)

	return &tableBuilder{
		builder:    b,
		timestamps: b.Field(colBlockTimestamp).(*array.TimestampBuilder),
		amounts:    b.Field(colAmount).(*array.Float64Builder),
		strs: []*array.StringBuilder{
			b.Field(colTxHash).(*array.StringBuilder),
			b.Field(colAccount).(*array.StringBuilder),
			b.Field(colToken).(*array.StringBuilder),
			b.Field(colEvent).(*array.StringBuilder),
			b.Field(colSourceFile).(*array.StringBuilder),
		},
	}
}

func (b *tableBuilder) append(rec domain.TransactionRecord, ts time.Time, tsValid bool) {
	if tsValid {
		b.timestamps.Append(arrow.Timestamp(ts.UnixMicro()))
	} else {
		b.timestamps.AppendNull()
	}

	if rec.AmountValid {
		b.amounts.Append(rec.Amount)
	} else {
		b.amounts.AppendNull()
	}

	for i, v := range []string{rec.TxHash, rec.Account, rec.Token, rec.Event, rec.SourceFile} {
		if v == "" {
			b.strs[i].AppendNull()
		} else {
			b.strs[i].Append(v)
		}
	}
}

func (b *tableBuilder) build() *Table {
	defer b.builder.Release()
	return newTable(b.builder.NewRecord())
}
