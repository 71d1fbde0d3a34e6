package http

import (
	"net/http"
	"net/url"

	"linkhub/domain/dto"
	"linkhub/domain/model"
	"linkhub/infrastructure/logger"
	"linkhub/usecase"

	"github.com/gin-gonic/gin"
)

const settingsPath = "/settings/social"

type ISocialHandler interface {
	Connect(c *gin.Context)
	Callback(c *gin.Context)
	Accounts(c *gin.Context)
	Revoke(c *gin.Context)
	Refresh(c *gin.Context)
}

type SocialHandler struct {
	oauth     usecase.IOAuthUsecase
	tokens    usecase.ITokenStore
	refresher usecase.ITokenRefresher
	// frontendURL receives the browser after a callback; empty answers with JSON
	frontendURL string
}

func NewSocialHandler(oauth usecase.IOAuthUsecase, tokens usecase.ITokenStore, refresher usecase.ITokenRefresher, frontendURL string) ISocialHandler {
	return &SocialHandler{oauth: oauth, tokens: tokens, refresher: refresher, frontendURL: frontendURL}
}

// Connect returns the provider consent URL for the signed-in user
func (h *SocialHandler) Connect(c *gin.Context) {
	platform, ok := platformParam(c)
	if !ok {
		return
	}
	authURL, state, err := h.oauth.Begin(c.Request.Context(), c.GetString("user_id"), platform)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ConnectResponse{AuthURL: authURL, State: state})
}

// Callback accepts both the query redirect and the form_post variant
func (h *SocialHandler) Callback(c *gin.Context) {
	platform, ok := platformParam(c)
	if !ok {
		return
	}
	var req dto.OAuthCallbackRequest
	if err := c.ShouldBind(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		h.finish(c, platform, nil, model.NewValidationError("callback", err.Error()))
		return
	}
	if req.Error != "" {
		msg := req.Error
		if req.ErrorDescription != "" {
			msg += ": " + req.ErrorDescription
		}
		logger.GetLogger().WithFields(map[string]interface{}{
			"platform": platform,
			"error":    msg,
		}).Warn("Provider denied authorization")
		h.finish(c, platform, nil, model.NewValidationError("authorization", msg))
		return
	}
	account, err := h.oauth.Callback(c.Request.Context(), platform, req.State, req.Code)
	h.finish(c, platform, account, err)
}

func (h *SocialHandler) finish(c *gin.Context, platform model.Platform, account *model.SocialAccount, err error) {
	if h.frontendURL == "" {
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, account)
		return
	}
	q := url.Values{}
	q.Set("platform", string(platform))
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			logger.GetLogger().WithFields(map[string]interface{}{"error": err, "platform": platform}).Error("OAuth callback failed")
			q.Set("error", "connection failed")
		} else {
			q.Set("error", err.Error())
		}
	} else {
		q.Set("connected", "true")
	}
	c.Redirect(http.StatusFound, h.frontendURL+settingsPath+"?"+q.Encode())
}

// Accounts lists connections of the user; credentials are never serialised
func (h *SocialHandler) Accounts(c *gin.Context) {
	accounts, err := h.tokens.ListByUser(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if accounts == nil {
		accounts = []model.SocialAccount{}
	}
	c.JSON(http.StatusOK, accounts)
}

func (h *SocialHandler) Revoke(c *gin.Context) {
	account, err := h.tokens.Revoke(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// Refresh renews the token of one provider right away
func (h *SocialHandler) Refresh(c *gin.Context) {
	platform, ok := platformParam(c)
	if !ok {
		return
	}
	account, err := h.refresher.RefreshAccountForUserProvider(c.Request.Context(), c.GetString("user_id"), platform)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}
