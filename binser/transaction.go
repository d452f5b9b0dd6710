// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package binser

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidemark/mdpack/internal/base"
	"github.com/tidemark/mdpack/internal/fieldcodec"
	"github.com/tidemark/mdpack/message"
)

// TransactionMeta is the header of a transaction day blob.
type TransactionMeta struct {
	MetaInfo
	FirstTransactionID, LastTransactionID                 int64
	FirstOriginalTransactionID, LastOriginalTransactionID int64
	FirstOrderID, LastOrderID                             int64
	FirstTradeID, LastTradeID                             int64

	FirstCommission, LastCommission decimal.Decimal
	FirstPnL, LastPnL               decimal.Decimal
	FirstPosition, LastPosition     decimal.Decimal
	FirstSlippage, LastSlippage     decimal.Decimal

	Portfolios   *fieldcodec.StringTable
	ClientCodes  *fieldcodec.StringTable
	BrokerCodes  *fieldcodec.StringTable
	DepoNames    *fieldcodec.StringTable
	Comments     *fieldcodec.StringTable
	UserOrderIDs *fieldcodec.StringTable
	StrategyIDs  *fieldcodec.StringTable
	Errors       *fieldcodec.StringTable
	Currencies   *fieldcodec.StringTable
}

var _ Meta = (*TransactionMeta)(nil)

func newTransactionMeta() *TransactionMeta {
	m := &TransactionMeta{}
	for _, t := range m.tables() {
		*t = fieldcodec.NewStringTable()
	}
	return m
}

func (m *TransactionMeta) tables() []**fieldcodec.StringTable {
	return []**fieldcodec.StringTable{
		&m.Portfolios, &m.ClientCodes, &m.BrokerCodes, &m.DepoNames, &m.Comments,
		&m.UserOrderIDs, &m.StrategyIDs, &m.Errors, &m.Currencies,
	}
}

func (m *TransactionMeta) copyFrom(other Meta) {
	*m = *other.(*TransactionMeta)
	for _, t := range m.tables() {
		*t = (*t).Clone()
	}
}

func (m *TransactionMeta) rewind() {
	m.rewindBase()
	m.LastTransactionID = m.FirstTransactionID
	m.LastOriginalTransactionID = m.FirstOriginalTransactionID
	m.LastOrderID = m.FirstOrderID
	m.LastTradeID = m.FirstTradeID
	m.LastCommission = m.FirstCommission
	m.LastPnL = m.FirstPnL
	m.LastPosition = m.FirstPosition
	m.LastSlippage = m.FirstSlippage
}

func (m *TransactionMeta) headerLayout() Layout[*headerIO] {
	return append(m.baseLayout(),
		idsGate("transaction ids", Version51, &m.FirstTransactionID, &m.LastTransactionID),
		idsGate("original transaction ids", Version51, &m.FirstOriginalTransactionID, &m.LastOriginalTransactionID),
		idsGate("order ids", Version51, &m.FirstOrderID, &m.LastOrderID),
		idsGate("trade ids", Version51, &m.FirstTradeID, &m.LastTradeID),
		m.pricesGate(Version51),
		m.fractionalPricesGate(Version51),
		m.fractionalVolumesGate(Version51),
		m.serverOffsetGate(Version51),
		decimalsGate("commissions", Version51, &m.FirstCommission, &m.LastCommission),
		decimalsGate("pnl", Version51, &m.FirstPnL, &m.LastPnL),
		decimalsGate("positions", Version51, &m.FirstPosition, &m.LastPosition),
		decimalsGate("slippages", Version51, &m.FirstSlippage, &m.LastSlippage),
		tableGate("portfolios", Version51, &m.Portfolios),
		tableGate("client codes", Version51, &m.ClientCodes),
		tableGate("broker codes", Version51, &m.BrokerCodes),
		tableGate("depo names", Version51, &m.DepoNames),
		tableGate("comments", Version51, &m.Comments),
		tableGate("user order ids", Version51, &m.UserOrderIDs),
		tableGate("strategies", Version51, &m.StrategyIDs),
		tableGate("errors", Version51, &m.Errors),
		m.offsetsGate(Version56),
		m.seqNumsGate(Version58),
		m.localTimesGate(Version59),
		tableGate("currencies", Version63, &m.Currencies),
	)
}

type transactionState = state[message.Transaction, *TransactionMeta]

var transactionCodec = &codec[message.Transaction, *TransactionMeta]{
	name:    "transaction",
	min:     Version51,
	max:     Version63,
	newMeta: newTransactionMeta,
	times: func(v Version) fieldcodec.TimeOptions {
		return fieldcodec.TimeOptions{
			NonOrdered:    true,
			UTC:           true,
			BigRange:      true,
			DiffOffsets:   v >= Version56,
			TickPrecision: v >= Version60,
		}
	},
	serverOffset: Version51,
	seed: func(st *transactionState, recs []message.Transaction) {
		r := &recs[0]
		m := st.meta
		m.FirstTransactionID, m.LastTransactionID = r.TransactionID, r.TransactionID
		if r.HasOrderInfo {
			st.m.seedPrice(r.OrderPrice, Version51)
		}
		st.m.seedTime(fieldcodec.StoredTicks(r.ServerTime, st.times))
		st.seedTimes(r.ServerTime, r.LocalTime)
		st.m.seedSeqNum(r.SeqNum)
	},
	validate: validateTransaction,
	layout: Layout[*transactionState]{
		field("server time", Version51, func(st *transactionState) { st.serverTime(&st.rec.ServerTime) }),
		field("transaction ids", Version51, func(st *transactionState) {
			st.id(&st.rec.TransactionID, &st.meta.LastTransactionID)
			nullable(&st.recordIO, &st.rec.OriginalTransactionID, func(p *int64) {
				st.id(p, &st.meta.LastOriginalTransactionID)
			})
		}),
		field("order", Version51, transactionOrder),
		field("trade", Version51, transactionTrade),
		field("running values", Version51, func(st *transactionState) {
			r, m := st.rec, st.meta
			st.nullDiff(&r.Commission, &m.LastCommission)
			st.nullDiff(&r.PnL, &m.LastPnL)
			st.nullDiff(&r.Position, &m.LastPosition)
			st.nullDiff(&r.Slippage, &m.LastSlippage)
			nullable(&st.recordIO, &r.Latency, func(d *time.Duration) {
				ticks := base.DurationTicks(*d)
				st.i64(&ticks)
				if st.reading() {
					*d = base.TicksDuration(ticks)
				}
			})
		}),
		field("names", Version51, func(st *transactionState) {
			r, m := st.rec, st.meta
			st.interned(&r.Portfolio, m.Portfolios)
			st.interned(&r.ClientCode, m.ClientCodes)
			st.interned(&r.BrokerCode, m.BrokerCodes)
			st.interned(&r.DepoName, m.DepoNames)
			st.interned(&r.Comment, m.Comments)
			st.interned(&r.UserOrderID, m.UserOrderIDs)
			st.interned(&r.StrategyID, m.StrategyIDs)
			st.interned(&r.Error, m.Errors)
		}),
		field("currency", Version51, func(st *transactionState) { st.currency(&st.rec.Currency) }),
		field("sequence number", Version58, func(st *transactionState) { st.seqNum(&st.rec.SeqNum) }),
		field("local time", Version59, func(st *transactionState) { st.localTime(&st.rec.LocalTime) }),
		field("market maker", Version61, func(st *transactionState) { st.nullBool(&st.rec.IsMarketMaker) }),
		field("margin", Version62, func(st *transactionState) { st.nullBool(&st.rec.IsMargin) }),
		field("commission currency", Version63, func(st *transactionState) {
			st.interned(&st.rec.CommissionCurrency, st.meta.Currencies)
		}),
	},
}

// nullVolume persists an optional volume against the shared volume anchor.
func (s *recordIO) nullVolume(p *decimal.NullDecimal) {
	if !s.flag(p.Valid) {
		if s.reading() {
			*p = decimal.NullDecimal{}
		}
		return
	}
	d := p.Decimal
	s.volume(&d, true)
	if s.reading() {
		*p = decimal.NewNullDecimal(d)
	}
}

// transactionOrder persists the order part of a report. The order fields of
// a report without order information are not stored.
func transactionOrder(st *transactionState) {
	r := st.rec
	if !st.flag(r.HasOrderInfo) {
		return
	}
	if st.reading() {
		r.HasOrderInfo = true
	}
	nullable(&st.recordIO, &r.OrderID, func(p *int64) { st.id(p, &st.meta.LastOrderID) })
	st.str(&r.OrderStringID)
	st.price(&r.OrderPrice, true, fieldcodec.PriceOptions{})
	st.nullVolume(&r.OrderVolume)
	st.nullVolume(&r.VisibleVolume)
	st.nullVolume(&r.Balance)
	st.side(&r.Side)
	st.nullI32(&r.OrderType)
	enum(&st.recordIO, &r.OrderState, 3)
	st.nullI64(&r.OrderStatus)
	enum(&st.recordIO, &r.TimeInForce, 2)
	nullable(&st.recordIO, &r.ExpiryDate, st.rawTime)
	st.nullBool(&r.IsSystem)
}

// transactionTrade persists the fill part of a report.
func transactionTrade(st *transactionState) {
	r := st.rec
	if !st.flag(r.HasTradeInfo) {
		return
	}
	if st.reading() {
		r.HasTradeInfo = true
	}
	nullable(&st.recordIO, &r.TradeID, func(p *int64) { st.id(p, &st.meta.LastTradeID) })
	if st.flag(r.TradePrice.Valid) {
		price := r.TradePrice.Decimal
		st.price(&price, true, fieldcodec.PriceOptions{})
		if st.reading() {
			r.TradePrice = decimal.NewNullDecimal(price)
		}
	}
	st.nullVolume(&r.TradeVolume)
	st.nullI64(&r.TradeStatus)
}

func validateTransaction(_ Version, t *message.Transaction) error {
	if t.HasTradeInfo && (!t.TradePrice.Valid || !t.TradePrice.Decimal.IsPositive()) {
		if !t.TradePrice.Valid {
			return base.InvalidDomainStatef("transaction %d has trade info without a trade price", t.TransactionID)
		}
		return base.InvalidDomainStatef("transaction %d has trade price %s", t.TransactionID, t.TradePrice.Decimal)
	}
	if t.OrderPrice.IsNegative() {
		return base.InvalidDomainStatef("transaction %d has order price %s", t.TransactionID, t.OrderPrice)
	}
	if t.OrderID != nil && *t.OrderID < 0 {
		return base.InvalidDomainStatef("transaction %d has order id %d", t.TransactionID, *t.OrderID)
	}
	for _, v := range []decimal.NullDecimal{t.OrderVolume, t.VisibleVolume, t.TradeVolume} {
		if v.Valid && v.Decimal.IsNegative() {
			return base.InvalidDomainStatef("transaction %d has negative volume %s", t.TransactionID, v.Decimal)
		}
	}
	if t.ExpiryDate != nil && t.ExpiryDate.IsZero() {
		return base.UnsupportedValuef("transaction %d has a zero expiry date", t.TransactionID)
	}
	return nil
}

// NewTransactionSerializer returns the serializer of the execution reports of
// sec.
func NewTransactionSerializer(sec message.SecurityID, opts ...Option) *Serializer[message.Transaction, *TransactionMeta] {
	return newSerializer(transactionCodec, sec, opts)
}
