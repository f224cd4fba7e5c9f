// Package contracts holds wire payloads in the shape the external services
// document them. Client tests replay these instead of hand-written mocks so a
// mock cannot drift from the real API.
package contracts

// MastodonApplication is the documented response of POST /api/v1/apps.
const MastodonApplication = `{
  "id": "563419",
  "name": "test app",
  "website": null,
  "redirect_uri": "urn:ietf:wg:oauth:2.0:oob",
  "client_id": "TWhM-tNSuncnqN7DBJmoyeLnk6K3iJJ71KKXxgL1hPM",
  "client_secret": "ZEaFUFmF0umgBX1qKJDjaU99Q31lDkOU8NutzTOoliw",
  "vapid_key": "BCk-QqERU0q-CfYZjcuB6lnyyOYfJ2AifKqfeGIm7Z-HiTU5T9eTG5GxVA0_OH5mMlI4UkkDTpaZwozy0TzdZ2M="
}`

// MastodonToken is the documented response of POST /oauth/token.
const MastodonToken = `{
  "access_token": "ZA-Yj3aBD8U8Cm7lKUp-lm9O9BmDgdhHzDeqsY8tlL0",
  "token_type": "Bearer",
  "scope": "read write follow push",
  "created_at": 1573979017
}`

// MastodonStatus is a trimmed documented response of POST /api/v1/statuses.
const MastodonStatus = `{
  "id": "103270115826048975",
  "created_at": "2019-12-08T03:48:33.901Z",
  "in_reply_to_id": null,
  "sensitive": false,
  "spoiler_text": "",
  "visibility": "public",
  "language": "en",
  "uri": "https://mastodon.social/users/Gargron/statuses/103270115826048975",
  "url": "https://mastodon.social/@Gargron/103270115826048975",
  "replies_count": 5,
  "reblogs_count": 6,
  "favourites_count": 11,
  "content": "<p>Today</p><p><a href=\"http://x/a1\">http://x/a1</a></p>",
  "account": {"id": "1", "username": "Gargron", "acct": "Gargron"},
  "media_attachments": [],
  "mentions": [],
  "tags": [],
  "emojis": []
}`

// MastodonAccount is a trimmed documented response of
// GET /api/v1/accounts/verify_credentials.
const MastodonAccount = `{
  "id": "14715",
  "username": "trwnh",
  "acct": "trwnh",
  "display_name": "infinite love",
  "locked": false,
  "bot": false,
  "created_at": "2016-11-24T10:02:12.085Z",
  "followers_count": 821,
  "following_count": 178,
  "statuses_count": 33120
}`

// MastodonValidationError is the documented 422 body.
const MastodonValidationError = `{"error": "Validation failed: Text can't be blank"}`

// MastodonUnauthorizedError is the documented 401 body.
const MastodonUnauthorizedError = `{"error": "The access token is invalid"}`

// OAuthInvalidGrant is an RFC 6749 error body as Doorkeeper renders it.
const OAuthInvalidGrant = `{
  "error": "invalid_grant",
  "error_description": "The provided authorization grant is invalid, expired, revoked, does not match the redirection URI used in the authorization request, or was issued to another client."
}`

// RSS2Feed follows the RSS 2.0 specification sample channel.
const RSS2Feed = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Liftoff News</title>
    <link>http://liftoff.msfc.nasa.gov/</link>
    <description>Liftoff to Space Exploration.</description>
    <item>
      <title>Star City</title>
      <link>http://liftoff.msfc.nasa.gov/news/2003/news-starcity.asp</link>
      <pubDate>Tue, 03 Jun 2003 09:39:21 GMT</pubDate>
      <guid>http://liftoff.msfc.nasa.gov/2003/06/03.html#item573</guid>
    </item>
    <item>
      <description>Sky watchers in Europe, Asia, and parts of Alaska and Canada will experience a partial eclipse of the Sun on Saturday, May 31st.</description>
      <pubDate>Fri, 30 May 2003 11:06:42 GMT</pubDate>
      <guid>http://liftoff.msfc.nasa.gov/2003/05/30.html#item572</guid>
    </item>
    <item>
      <title>The Engine That Does More</title>
      <link>http://liftoff.msfc.nasa.gov/news/2003/news-VASIMR.asp</link>
      <pubDate>Tue, 27 May 2003 08:37:32 GMT</pubDate>
    </item>
  </channel>
</rss>`

// AtomFeed follows the RFC 4287 minimal feed sample.
const AtomFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Example Feed</title>
  <link href="http://example.org/"/>
  <updated>2003-12-13T18:30:02Z</updated>
  <author><name>John Doe</name></author>
  <id>urn:uuid:60a76c80-d399-11d9-b93C-0003939e0af6</id>
  <entry>
    <title>Atom-Powered Robots Run Amok</title>
    <link href="http://example.org/2003/12/13/atom03"/>
    <id>urn:uuid:1225c695-cfb8-4ebb-aaaa-80da344efa6a</id>
    <updated>2003-12-13T18:30:02Z</updated>
    <summary>Some text.</summary>
  </entry>
</feed>`
