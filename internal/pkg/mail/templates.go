package mail

import (
	"bytes"
	"html/template"
	"time"
)

const confirmationTpl = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
</head>
<body style="background-color:#fff;margin:0 auto;font-family:ui-sans-serif,system-ui,-apple-system,BlinkMacSystemFont,Segoe UI,Roboto,Helvetica Neue,Arial,sans-serif;padding:.5rem">
  <table align="center" width="100%" role="presentation" cellspacing="0" cellpadding="0" border="0" style="max-width:100%;border:1px solid rgb(14,165,233);border-radius:.25rem;margin:40px auto;padding:20px;width:550px">
    <tbody>
      <tr><td>
        <h1 style="color:#000;font-size:18px;font-weight:400;text-align:center;margin:30px 0">You're on the list for <strong>{{.SiteName}}</strong></h1>
        <p style="font-size:14px;line-height:24px;margin:16px 0;color:#000">Thanks for signing up with {{.Email}}. We are putting the finishing touches on the site and will email you the moment it goes live.</p>
        <hr style="width:100%;border:none;border-top:1px solid #eaeaea;margin:26px 0" />
        <p style="font-size:10px;line-height:24px;margin:16px 0;text-align:center;color:rgb(156,163,175)">This message was sent automatically, please do not reply.<br />&copy;{{year}} {{.SiteName}}</p>
      </td></tr>
    </tbody>
  </table>
</body>
</html>`

const launchTpl = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
</head>
<body style="background-color:#fff;margin:0 auto;font-family:ui-sans-serif,system-ui,-apple-system,BlinkMacSystemFont,Segoe UI,Roboto,Helvetica Neue,Arial,sans-serif;padding:.5rem">
  <table align="center" width="100%" role="presentation" cellspacing="0" cellpadding="0" border="0" style="max-width:100%;border:1px solid rgb(251,113,133);border-radius:.375rem;margin:40px auto;padding:20px;width:550px">
    <tbody>
      <tr><td>
        <h1 style="font-size:20px;text-align:center">{{.SiteName}} is live!</h1>
        <p style="font-size:14px;line-height:24px;margin:16px 0">The wait is over. Your access for {{.Email}} is now active.</p>
        {{if .SiteURL}}
        <table align="center" width="100%" role="presentation" border="0" cellpadding="0" cellspacing="0" style="text-align:center;margin:32px 0">
          <tbody><tr><td>
            <a href="{{.SiteURL}}" target="_blank" style="line-height:100%;text-decoration:none;display:inline-block;padding:12px 20px;background-color:rgb(251,113,133);border-radius:.25rem;color:#fff;font-size:12px;font-weight:600">Visit {{.SiteName}}</a>
          </td></tr></tbody>
        </table>
        {{end}}
        <hr style="width:100%;border:none;border-top:1px solid #eaeaea" />
        <p style="font-size:10px;line-height:24px;margin:16px 0;text-align:center;color:rgb(156,163,175)">This message was sent automatically, please do not reply.<br />&copy;{{year}} {{.SiteName}}</p>
      </td></tr>
    </tbody>
  </table>
</body>
</html>`

var (
	confirmationTemplate = mustParse("confirmation", confirmationTpl)
	launchTemplate       = mustParse("launch", launchTpl)
)

// TemplateData is shared by every landing email.
type TemplateData struct {
	SiteName string
	SiteURL  string
	Email    string
}

func mustParse(name, tpl string) *template.Template {
	return template.Must(template.New(name).Funcs(template.FuncMap{
		"year": func() int {
			return time.Now().Year()
		},
	}).Parse(tpl))
}

func render(t *template.Template, data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
