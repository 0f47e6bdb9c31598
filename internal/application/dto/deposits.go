package dto

type RecordDepositCommand struct {
	Source    string
	AssetType string
	UserID    string
	Address   string
	Amount    string
}

type RecordDepositOutput struct {
	AssetType string `json:"asset_type"`
	Address   string `json:"address"`
	Amount    string `json:"amount"`
	Balance   string `json:"balance"`
}
