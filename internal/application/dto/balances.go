package dto

type GetBalanceQuery struct {
	UserIDs   []string
	AssetType string
}

type GetBalanceOutput struct {
	AssetType   string              `json:"asset_type"`
	Total       string              `json:"total"`
	SubAccounts []SubAccountBalance `json:"sub_accounts"`
}

type SubAccountBalance struct {
	UserID  string `json:"user_id"`
	Address string `json:"address"`
	Balance string `json:"balance"`
}
