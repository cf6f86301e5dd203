// Package auth identifies the caller of the dataset endpoints.
//
// Accounts come from configuration (username plus bcrypt hash). A successful
// login issues an HS256 JWT stored in the "sessionid" cookie; the token's
// subject is the owner every dataset is filed under. State changing requests
// must echo the "csrftoken" cookie in the X-CSRFToken header.
package auth
