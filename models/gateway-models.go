package gateway_integration_models

// AccessTokenResponse is returned by the gateway's login endpoint.
type AccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
	TokenType   string `json:"tokenType"`
}

// DocumentItem identifies a remote statement file. Created by the gateway,
// never mutated on our side.
type DocumentItem struct {
	RID       string `json:"rId" validate:"required"`
	Href      string `json:"href"`
	Timestamp string `json:"timestamp"`
	IBAN      string `json:"iban"`
	IsNew     bool   `json:"isNew"`
	Format    string `json:"format"`
	FileName  string `json:"fileName"`
}

type DocumentList struct {
	DocumentItems []*DocumentItem `json:"documentItems"`
}

// ErrorItem is the gateway's structured error shape for 400/403 responses.
type ErrorItem struct {
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
	Timestamp    string `json:"timestamp"`
}

type ErrorList struct {
	ErrorItems []*ErrorItem `json:"errorItems"`
}

// APIMessage is the generic {"Message": ...} envelope the gateway uses for
// 404 and similar unclassified responses.
type APIMessage struct {
	Message              string `json:"Message"`
	APIDocumentationLink string `json:"ApiDocumentationLink"`
}

// PainStatusItem carries the gateway's view of a submitted payment batch.
// ReasonCode / Reason / AdditionalInformation only show up on later polls,
// once the financial institute has answered.
type PainStatusItem struct {
	Status                string `json:"status"`
	UploadTimestamp       string `json:"uploadTimestamp"`
	OrderID               string `json:"orderID"`
	ReasonCode            string `json:"reasonCode,omitempty"`
	Reason                string `json:"reason,omitempty"`
	AdditionalInformation string `json:"additionalInformation,omitempty"`
}

// PainEnvelope is the response wrapper for both pain submission and the
// status poll endpoint. RID identifies the payment process on all follow-up
// calls.
type PainEnvelope struct {
	RID               string         `json:"rId"`
	Timestamp         string         `json:"timestamp"`
	Type              string         `json:"type"`
	PaymentStatusItem PainStatusItem `json:"paymentStatusItem"`
}
