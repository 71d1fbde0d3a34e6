package dto

// OAuthCallbackRequest covers both the query string and form post variants
type OAuthCallbackRequest struct {
	State            string `form:"state" json:"state"`
	Code             string `form:"code" json:"code"`
	Error            string `form:"error" json:"error"`
	ErrorDescription string `form:"error_description" json:"error_description"`
}

// ConnectResponse points the browser at the provider consent page
type ConnectResponse struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}
