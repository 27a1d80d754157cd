package handlers

import (
	"github.com/gofiber/fiber/v2"
)

const robotsTxt = `User-agent: *
Disallow: /api/admin/
Disallow: /api/auth/
Disallow: /uploads/
`

// SiteHandler serves the static pages of the site, branded with the
// configured application name.
type SiteHandler struct {
	appName string
}

func NewSiteHandler(appName string) *SiteHandler {
	return &SiteHandler{appName: appName}
}

func (h *SiteHandler) Robots(c *fiber.Ctx) error {
	c.Type("txt")
	return c.SendString(robotsTxt)
}

func (h *SiteHandler) PrivacyPolicy(c *fiber.Ctx) error {
	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Privacy Policy - ` + h.appName + `</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>body{font-family:-apple-system,BlinkMacSystemFont,sans-serif;max-width:800px;margin:0 auto;padding:20px;color:#333}h1{color:#1a1a1a}h2{color:#444;margin-top:30px}</style>
</head><body>
<h1>Privacy Policy</h1>
<h2>Information We Collect</h2>
<p>We store your username, full name, email address, birthday and the content you publish on ` + h.appName + `.</p>
<h2>How We Use Your Information</h2>
<p>Your data is used to run your account, show your messages to the audience you choose and review reports about abusive content.</p>
<h2>Visibility</h2>
<p>Each message has a privacy level. Messages marked as private are visible to you only; messages for friends are visible to the people who follow you.</p>
<h2>Reports</h2>
<p>When you report content we record what was reported and why. Reports may be filed anonymously.</p>
</body></html>`)
}

func (h *SiteHandler) TermsOfService(c *fiber.Ctx) error {
	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Terms of Service - ` + h.appName + `</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>body{font-family:-apple-system,BlinkMacSystemFont,sans-serif;max-width:800px;margin:0 auto;padding:20px;color:#333}h1{color:#1a1a1a}h2{color:#444;margin-top:30px}</style>
</head><body>
<h1>Terms of Service</h1>
<h2>Acceptance</h2>
<p>By using ` + h.appName + `, you agree to these terms.</p>
<h2>User Conduct</h2>
<p>You agree not to post spam, harassment, hate speech or illegal content. Anyone can report content that breaks these rules.</p>
<h2>Moderation</h2>
<p>Administrators review reports. Reported messages may be removed and accounts may be disabled permanently.</p>
</body></html>`)
}
