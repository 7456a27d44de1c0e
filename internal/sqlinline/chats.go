package sqlinline

const QInsertChat = `--sql 9b3d51c7-4e8f-4a26-b0d9-72a1c6e5f038
insert into chats(id, user_id, title, last_message_at, created_at, updated_at)
values ($1::uuid, $2::uuid, $3::text, $4::timestamptz, now(), now());
`

const QInsertChatMessage = `--sql e25a7f90-1b3c-48d6-a4e8-50c9d2b7f161
insert into chat_messages(id, chat_id, role, content, voice, sources, tokens_used, credits_deducted, created_at)
values ($1::uuid, $2::uuid, $3::text, $4::text, $5::boolean, coalesce($6::jsonb, '[]'::jsonb), $7::int, $8::int, $9::timestamptz);
`

// Touch doubles as the ownership check: zero rows means the chat does not
// exist, belongs to someone else, or was soft-deleted.
const QTouchChatForUser = `--sql 58f02ad4-7c61-4b9e-8d35-f4a6b1e0c927
update chats
set last_message_at = $3::timestamptz, updated_at = now()
where id = $1::uuid and user_id = $2::uuid and is_deleted = false
returning id;
`

const QSelectChatForUser = `--sql 06e9c3b8-5fd2-471a-92c4-8b7e0d1a5f63
select id, user_id, title, is_deleted, last_message_at, created_at, updated_at
from chats
where id = $1::uuid and user_id = $2::uuid and is_deleted = false;
`

const QSelectChatMessages = `--sql b71d4e29-8a05-4c3f-bd68-2e9f7c0a4d51
select id, role, content, voice, sources, tokens_used, credits_deducted, created_at
from chat_messages
where chat_id = $1::uuid
order by position asc;
`

const QListChatsForUser = `--sql 42c8a0f6-e19d-4b57-86ae-d3b5f2c70e94
select id, title, last_message_at, created_at
from chats
where user_id = $1::uuid and is_deleted = false
order by last_message_at desc
limit $2::int offset $3::int;
`

const QCountChatsForUser = `--sql d90b6e13-27f4-48ca-95d1-6a0c8e3b2f75
select count(*)
from chats
where user_id = $1::uuid and is_deleted = false;
`

const QSoftDeleteChat = `--sql 1e64f8d0-b92a-4375-a0c6-49d7e2b8c503
update chats
set is_deleted = true, updated_at = now()
where id = $1::uuid and user_id = $2::uuid and is_deleted = false
returning id;
`
