package services

const deletionConfirmEmailHTML = `<!DOCTYPE html>
<html>
<head>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif, "Apple Color Emoji", "Segoe UI Emoji", "Segoe UI Symbol"; line-height: 1.6; color: #1f2937; background-color: #f0f9ff; margin: 0; padding: 20px; }
.container { padding: 20px; max-width: 600px; margin: 20px auto; background-color: #ffffff; border: 1px solid #bae6fd; border-radius: 8px; }
.header { font-size: 24px; font-weight: bold; color: #0369a1; margin-bottom: 15px; }
.content { padding: 30px; text-align: center; }
.button { font-size: 16px; font-weight: bold; color: #ffffff; background-color: #dc2626; padding: 12px 24px; border-radius: 5px; display: inline-block; margin: 20px 0; text-decoration: none; }
.footer { margin-top: 20px; font-size: 12px; color: #6b7280; text-align: center; }
p { margin-bottom: 1em; }
</style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Confirm Account Deletion</h1>
    </div>
    <div class="content">
      <p>We received a request to permanently delete your %s account. Click the button below to confirm.</p>
      <a class="button" href="%s">Delete My Account</a>
      <p>This link expires in 1 hour and can only be used once.</p>
      <p>If you did not request this, you can safely ignore this email. Your account will not be changed.</p>
    </div>
    <div class="footer">
      © %d %s. All rights reserved.
    </div>
  </div>
</body>
</html>`
