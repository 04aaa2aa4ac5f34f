package dto

// OpenTradeRequest is the POST /trades/open payload. A zero ID gets a
// generated UUID; a zero entry time defaults to now.
type OpenTradeRequest struct {
	ID           string  `json:"id"`
	Symbol       string  `json:"symbol"`
	Side         string  `json:"side"`
	Qty          float64 `json:"qty"`
	EntryPrice   float64 `json:"entry_price"`
	NotionalUSDC float64 `json:"notional_usdc"`
	EntryTime    string  `json:"entry_time,omitempty"`
}

// CloseTradeRequest is the POST /trades/close payload.
type CloseTradeRequest struct {
	ID        string  `json:"id"`
	ExitPrice float64 `json:"exit_price"`
	ExitTime  string  `json:"exit_time,omitempty"`
}

// PreviewRequest is the POST /trade/preview payload. A nil price means
// the current ticker price is used.
type PreviewRequest struct {
	Symbol          string   `json:"symbol"`
	Side            string   `json:"side"`
	Price           *float64 `json:"price,omitempty"`
	StopDistancePct float64  `json:"stop_distance_pct"`
	TakeProfitPct   float64  `json:"take_profit_pct"`
}

// PreviewResponse describes a position the engine would open.
type PreviewResponse struct {
	Symbol          string  `json:"symbol"`
	Side            string  `json:"side"`
	Qty             float64 `json:"qty"`
	EstCostUSDC     float64 `json:"est_cost_usdc"`
	StopPrice       float64 `json:"stop_price"`
	TakeProfitPrice float64 `json:"take_profit_price"`
	Notes           string  `json:"notes,omitempty"`
}

// MarketOrderRequest is the POST /trade/market payload. A nil qty is
// sized from max_position_size_usdc at the current ticker price.
type MarketOrderRequest struct {
	Symbol              string   `json:"symbol"`
	Side                string   `json:"side"`
	Qty                 *float64 `json:"qty,omitempty"`
	ReturnToUSDCOnClose *bool    `json:"return_to_usdc_on_close,omitempty"`
}

// MarketOrderResponse is the simulated fill returned in paper mode.
type MarketOrderResponse struct {
	Paper               bool    `json:"paper"`
	Symbol              string  `json:"symbol"`
	Side                string  `json:"side"`
	Qty                 float64 `json:"qty"`
	Price               float64 `json:"price"`
	ReturnToUSDCOnClose bool    `json:"return_to_usdc_on_close"`
	Message             string  `json:"message"`
}
