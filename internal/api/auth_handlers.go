package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cookmate/internal/account"
)

// bind decodes the JSON body into dst, answering 400 on malformed input.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid_body", "Malformed request body")
		return false
	}
	return true
}

// Register handles account creation and sends the verification code.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if !bind(c, &req) {
		return
	}
	dob, ok := parseDate(req.DateOfBirth)
	if !ok {
		badRequest(c, "invalid_date", "date_of_birth must be YYYY-MM-DD")
		return
	}
	acc, err := h.Accounts.Register(c.Request.Context(), account.RegisterInput{
		FullName:    req.FullName,
		Email:       req.Email,
		Password:    req.Password,
		DateOfBirth: dob,
	})
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful. Please check your email for the verification code.",
		"user":    acc,
	})
}

func (h *Handler) VerifyOTP(c *gin.Context) {
	var req verifyRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Accounts.Verify(c.Request.Context(), req.Email, req.OTP); err != nil {
		respondError(c, h.Log, err)
		return
	}
	message(c, http.StatusOK, "Email verified successfully!")
}

func (h *Handler) ResendOTP(c *gin.Context) {
	var req emailRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Accounts.Resend(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.Log, err)
		return
	}
	message(c, http.StatusOK, "New OTP sent to your email")
}

// Login handles credential checks and returns a session token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	sess, err := h.Accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   sess.Token,
		"user":    sess.Account,
	})
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Accounts.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.Log, err)
		return
	}
	message(c, http.StatusOK, "Password reset code sent to your email")
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Accounts.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		respondError(c, h.Log, err)
		return
	}
	message(c, http.StatusOK, "Password reset successfully")
}

func (h *Handler) Profile(c *gin.Context) {
	prof, err := h.Accounts.Profile(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": prof})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if !bind(c, &req) {
		return
	}
	dob, ok := parseDate(req.DateOfBirth)
	if !ok {
		badRequest(c, "invalid_date", "date_of_birth must be YYYY-MM-DD")
		return
	}
	acc, err := h.Accounts.UpdateProfile(c.Request.Context(), userID(c), req.FullName, dob)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": acc})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Accounts.ChangePassword(c.Request.Context(), userID(c), req.OldPassword, req.NewPassword); err != nil {
		respondError(c, h.Log, err)
		return
	}
	message(c, http.StatusOK, "Password changed successfully")
}

// Logout is an acknowledgement only; tokens are stateless and the client
// discards its copy.
func (h *Handler) Logout(c *gin.Context) {
	message(c, http.StatusOK, "Logged out successfully")
}

func (h *Handler) SavePreferences(c *gin.Context) {
	var req preferencesRequest
	if !bind(c, &req) {
		return
	}
	prefs, err := h.Accounts.SavePreferences(c.Request.Context(), account.Preferences{
		UserID:     userID(c),
		DietType:   req.DietType,
		Allergies:  []string(req.Allergies),
		Cuisines:   []string(req.Cuisines),
		SkillLevel: req.SkillLevel,
		MealGoal:   req.MealGoal,
		HealthGoal: req.HealthGoal,
	})
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Preferences saved successfully", "preferences": prefs})
}

func (h *Handler) GetPreferences(c *gin.Context) {
	prefs, err := h.Accounts.Preferences(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}
