// Package auth implements authentication and session management.
//
// Flows:
//   - Register: create a USER account, then open a session
//   - Login: exact (email, number) match plus Argon2id password verify
//   - Refresh: rotate the stored refresh token after byte-equality check
//   - Logout: delete the stored session
//
// A session is a single refresh token per subject, stored in Redis under
// subject:<id>:refresh with a TTL equal to the refresh lifetime. Access
// tokens are validated by signature alone, so logout does not invalidate
// access tokens already in flight; they lapse at their own expiry.
//
// Access and refresh tokens are both HS256 JWTs carrying {sub, role},
// signed with distinct secrets.
package auth
