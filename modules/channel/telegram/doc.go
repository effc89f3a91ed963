// Package telegram connects chatdigest to the Telegram Bot API.
//
// It long-polls updates through go-telegram-bot-api and, for chats listed in
// allowed_chats:
//
//   - logs every text or caption message
//   - answers trigger phrases and replies to the bot through the reply service
//   - serves the /chatid, /summary_now and *_summaries commands
//   - posts HTML digests for the scheduler, split at the message length limit
//
// Updates from other chats are dropped before anything is stored.
package telegram
